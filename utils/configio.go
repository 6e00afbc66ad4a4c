package utils

import (
	"io/ioutil"

	jsoniter "github.com/json-iterator/go"

	"github.com/timiblossom/dyno/models"
)

// LoadPoolConfig opens a JSON file and decodes it into a models.PoolConfig,
// the same jsoniter.ConfigFastest decode path the teacher uses for its own
// seasoning files.
func LoadPoolConfig(fileNamePath string) (*models.PoolConfig, error) {
	byteValue, err := ioutil.ReadFile(fileNamePath)
	if err != nil {
		return nil, err
	}

	cfg := &models.PoolConfig{}
	json := jsoniter.ConfigFastest
	if err := json.Unmarshal(byteValue, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
