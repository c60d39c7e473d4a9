package server

import "github.com/classlab/gerrymander/internal/protocol"

// Playlist is the order rounds are played in a session. Catalog holds every
// round a host can pick from.
var Playlist = []string{"consoles", "chicken_egg", "simulation", "daylight"}

var Catalog = map[string]protocol.RoundConfig{
	"consoles": {
		ID: "consoles", Question: "Which platform is superior?",
		Options: [2]string{"Xbox", "PlayStation"},
		Colors:  [2]string{"#107C10", "#003791"},
		Icons:   [2]string{"fa-brands fa-xbox", "fa-brands fa-playstation"},
	},
	"chicken_egg": {
		ID: "chicken_egg", Question: "Which came first?",
		Options: [2]string{"Chicken", "Egg"},
		Colors:  [2]string{"#D35400", "#F1C40F"},
		Icons:   [2]string{"fa-solid fa-crow", "fa-solid fa-egg"},
	},
	"simulation": {
		ID: "simulation", Question: "Are we living in a simulation?",
		Options: [2]string{"Yes", "No"},
		Colors:  [2]string{"#2ecc71", "#e74c3c"},
		Icons:   [2]string{"fa-solid fa-microchip", "fa-solid fa-ban"},
	},
	"daylight": {
		ID: "daylight", Question: "Should we abolish Daylight Savings?",
		Options: [2]string{"Yes", "No (Keep it)"},
		Colors:  [2]string{"#34495e", "#f39c12"},
		Icons:   [2]string{"fa-solid fa-thumbs-up", "fa-solid fa-clock"},
	},
	"mobile_os": {
		ID: "mobile_os", Question: "iOS or Android?",
		Options: [2]string{"Apple", "Android"},
		Colors:  [2]string{"#A2AAAD", "#3DDC84"},
		Icons:   [2]string{"fa-brands fa-apple", "fa-brands fa-android"},
	},
	"morning_night": {
		ID: "morning_night", Question: "When are you most productive?",
		Options: [2]string{"Early Bird", "Night Owl"},
		Colors:  [2]string{"#f39c12", "#2c3e50"},
		Icons:   [2]string{"fa-solid fa-sun", "fa-solid fa-moon"},
	},
	"gif_pronunciation": {
		ID: "gif_pronunciation", Question: "How do you pronounce GIF?",
		Options: [2]string{"Hard G (Gift)", "Soft G (Jif)"},
		Colors:  [2]string{"#1abc9c", "#9b59b6"},
		Icons:   [2]string{"fa-solid fa-g", "fa-solid fa-jar"},
	},
	"toilet_paper": {
		ID: "toilet_paper", Question: "Toilet paper orientation?",
		Options: [2]string{"Over", "Under"},
		Colors:  [2]string{"#34495e", "#bdc3c7"},
		Icons:   [2]string{"fa-solid fa-arrow-up", "fa-solid fa-arrow-down"},
	},
}
