package moderation

import (
	"regexp"
	"strings"
)

// ChatTurn is one entry of the client-supplied assistant history. The canned
// assistant does not read it.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type reply struct {
	pattern *regexp.Regexp
	text    string
}

var replies = []reply{
	{
		regexp.MustCompile(`(?i)\b(hi|hello|hey|namaste)\b`),
		"Hey there! 👋 Welcome to Hangoutz! I'm your AI guide for all things Raipur. Ask me about events, food, places to visit, or anything else about the city!",
	},
	{
		regexp.MustCompile(`(?i)\b(event|happening|what'?s on)\b`),
		"There are several exciting events coming up in Raipur! 🎉 Check out the home screen to see all current events and join the ones that interest you!",
	},
	{
		regexp.MustCompile(`(?i)\b(food|eat|restaurant|khana)\b`),
		"Raipur has amazing food! 🍔 Try the street food in Purani Basti, fine dining at Magneto Mall, or check out food-themed events!",
	},
	{
		regexp.MustCompile(`(?i)\b(place|visit|tourist|see)\b`),
		"Must-visit places in Raipur! 📍\n\n1. Marine Drive at Telibandha Lake\n2. Nandan Van Zoo & Safari\n3. Purkhauti Muktangan\n4. Mahant Ghasidas Museum\n\nSome might have events happening too!",
	},
	{
		regexp.MustCompile(`(?i)\b(help|what can you)\b`),
		"I can help you with:\n\n🎉 Finding events\n🍔 Food recommendations\n📍 Places to visit\n🌤️ Weather info\n💡 City tips\n\nWhat would you like to know?",
	},
}

const defaultReply = "That's interesting! 🏙️ I'm here to help you discover Raipur. Try asking about events, food, places to visit, or local tips!"

// AssistantReply picks the first canned answer whose pattern matches.
func AssistantReply(message string, _ []ChatTurn) string {
	lower := strings.ToLower(message)
	for _, r := range replies {
		if r.pattern.MatchString(lower) {
			return r.text
		}
	}
	return defaultReply
}
