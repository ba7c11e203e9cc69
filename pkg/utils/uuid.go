package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	characters       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	campaignIDPrefix = "camp-"
	campaignIDLength = 12
)

// GenerateCampaignID gera identificadores no formato camp-XXXXXXXXXXXX
func GenerateCampaignID() (string, error) {
	id, err := gonanoid.Generate(characters, campaignIDLength)
	if err != nil {
		return "", err
	}

	return campaignIDPrefix + id, nil
}

func GenerateAlertID() string {
	return uuid.NewString()
}
