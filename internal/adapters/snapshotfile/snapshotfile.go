// Package snapshotfile reads and writes portfolios as YAML documents.
//
// A file holds a single document:
//
//	teams:
//	  - team_id: checkout
//	    snapshots:
//	      - timestamp: 2025-01-01T00:00:00Z
//	        values: {deployment_frequency: 4.5, lead_time: 36}
//	        coverage: {attrition: false}
package snapshotfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/pulse/internal/domain/model"
	"gopkg.in/yaml.v3"
)

const fileMode = 0o644

// Decode reads one portfolio document. Unknown keys are rejected.
func Decode(r io.Reader) (model.Portfolio, error) {
	var p model.Portfolio
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Portfolio{}, fmt.Errorf("%w: empty document", ErrDecode)
		}
		return model.Portfolio{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return p, nil
}

// Encode writes p as a YAML document.
func Encode(w io.Writer, p model.Portfolio) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// Load decodes and validates the portfolio stored at path.
func Load(ctx context.Context, path string) (model.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return model.Portfolio{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	p, err := Decode(f)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("load %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return model.Portfolio{}, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path, replacing any existing file.
func Save(ctx context.Context, path string, p model.Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
