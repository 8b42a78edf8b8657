// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package matpkg

import "sigs.k8s.io/yaml"

// Config carries the handful of knobs the rewriter needs beyond the
// caller-supplied Compiler. The zero value is invalid; use
// DefaultConfig or LoadConfig.
type Config struct {
	// BlobCodec names the compr.Compressor/Decompressor used to
	// compress each blob in the BlobDictionary. "s2" by default.
	BlobCodec string `json:"blobCodec,omitempty"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{BlobCodec: "s2"}
}

// LoadConfig parses YAML config bytes over DefaultConfig, the way a
// host process would load a deployment-specific override file.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.BlobCodec == "" {
		cfg.BlobCodec = "s2"
	}
	return cfg, nil
}
