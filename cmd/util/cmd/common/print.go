package common

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PrettyPrint prints v as indented JSON.
func PrettyPrint(v interface{}) {
	s, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not encode output")
	}
	fmt.Println(string(s))
}
