package model

import (
	"github.com/LeonardoBeccarini/farmtech/internal/model/entities"
	"github.com/LeonardoBeccarini/farmtech/internal/model/messages"
)

// Alias dei tipi condivisi tra i servizi

type (
	SensorReadingMessage    = messages.SensorReadingMessage
	IrrigationDecisionEvent = messages.IrrigationDecisionEvent
	CropProfile             = entities.CropProfile
	CropType                = entities.CropType
	SensorReading           = entities.SensorReading
	NPKStatus               = entities.NPKStatus
	Station                 = entities.Station
)
