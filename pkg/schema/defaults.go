package schema

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

const (
	defaultUsername  = "Embed Generator"
	defaultAvatarURL = "https://message.style/logo128.png"
	defaultColor     = 0x58b9ff
)

const welcomeContent = "Welcome to **Embed Generator** 🎉 Create stunning embed messages for your Discord server with ease!\n\n" +
	"If you're ready to start, simply click on the \"Clear\" button at the top of the editor and create your own message."

const aboutDescription = "Embed Generator is a powerful tool that enables you to create visually appealing and interactive embed messages for your Discord server. " +
	"With the use of webhooks, Embed Generator allows you to customize the appearance of your messages and make them more engaging.\n\n" +
	"To get started, all you need is a webhook URL, which can be obtained from the 'Integrations' tab in your server's settings. " +
	"Alternatively, you can log in with your Discord account and select a server and channel."

// Default builds the welcome message shown to new users.
func Default(gen *ids.Generator) *models.Message {
	color := defaultColor
	return &models.Message{
		Content:   welcomeContent,
		Username:  defaultUsername,
		AvatarURL: defaultAvatarURL,
		Embeds: []*models.Embed{{
			ID:          gen.Next(),
			Title:       "About Embed Generator",
			Description: aboutDescription,
			Color:       &color,
			Fields:      []*models.EmbedField{},
		}},
		Components: []models.Component{
			&models.ActionRow{
				ID: gen.Next(),
				Components: []models.Component{
					&models.Button{
						ID:    gen.Next(),
						Style: models.ButtonStyleLink,
						Label: "Discord Server",
						URL:   "https://message.style/discord",
					},
					&models.Button{
						ID:    gen.Next(),
						Style: models.ButtonStyleLink,
						Label: "Documentation",
						URL:   "https://message.style/docs",
					},
				},
			},
		},
		Actions: map[string]*models.ActionSet{},
	}
}

// Empty is the message left after clearing the editor.
func Empty() *models.Message {
	return &models.Message{
		Embeds:     []*models.Embed{},
		Components: []models.Component{},
		Actions:    map[string]*models.ActionSet{},
	}
}
