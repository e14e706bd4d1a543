package config

import (
	"encoding/json"
	"errors"
	"os"
)

// CreateSample creates a sample configuration file.
func CreateSample(path string) error {
	sample := Config{
		Server: ConfigServer{
			HttpAddress:  ":7600",
			HttpsAddress: ":7601",
		},
		TLS: ConfigTLS{
			DomainNameServer: []string{},
			IP:               []string{},
			Certificates:     []*ConfigTLSPath{},
		},
		Database: Database{
			Sqlite:     "aufmass.db",
			LegacyPath: "",
		},
		Guest: Guest{
			Secret: "change-me",
		},
		LogLevel: LogLevelInfo,
	}
	raw, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return errors.Join(errors.New("marshal sample config"), err)
	}
	err = os.WriteFile(path, raw, 0o640)
	if err != nil {
		return errors.Join(errors.New("write sample config"), err)
	}
	return nil
}
