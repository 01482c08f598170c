package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/fibermos/motionplan"
)

// ReadProgram reads a motion program stored as JSON.
func ReadProgram(filePath string) (*motionplan.MotionProgram, error) {
	//nolint:gosec
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	mp := &motionplan.MotionProgram{}
	if err := json.Unmarshal(data, mp); err != nil {
		return nil, errors.Wrapf(err, "failed to decode motion program %q", filePath)
	}
	return mp, nil
}

// WriteProgram stores mp as indented JSON, replacing any existing file.
func WriteProgram(filePath string, mp *motionplan.MotionProgram) error {
	data, err := json.MarshalIndent(mp, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(filePath, append(data, '\n'), 0o600), "failed to write %q", filePath)
}
