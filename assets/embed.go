package assets

import (
	"embed"
)

//go:embed teams.json matches.json
var FS embed.FS

func readFile(name string) ([]byte, error) {
	return FS.ReadFile(name)
}

func TeamsJSON() ([]byte, error) {
	return readFile("teams.json")
}

func MatchesJSON() ([]byte, error) {
	return readFile("matches.json")
}
