package storagepath

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Version is the serialization version written by Serialize
const Version = 1

// FileScheme is assumed for paths without a scheme
const FileScheme = "file"

var validate = validator.New()

// ObjectStoragePath is a location in an object store
type ObjectStoragePath struct {
	Scheme string
	Bucket string
	Key    string

	// ConnID names the connection used to reach the store
	ConnID string

	// Options are passed to the storage client
	Options map[string]any

	// fileURL is set when a file path was written as a file:// URL
	fileURL bool
}

// Parse splits raw into scheme, bucket and key. A path without a scheme is a
// local file path.
func Parse(raw, connID string, options map[string]any) (*ObjectStoragePath, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty storage path")
	}

	p := &ObjectStoragePath{ConnID: connID, Options: options}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		p.Scheme = FileScheme
		p.Key = raw
		return p, nil
	}
	if scheme == "" {
		return nil, fmt.Errorf("storage path %q has an empty scheme", raw)
	}

	p.Scheme = strings.ToLower(scheme)
	if p.Scheme == FileScheme {
		p.Key = rest
		p.fileURL = true
		return p, nil
	}

	p.Bucket, p.Key, _ = strings.Cut(rest, "/")
	return p, nil
}

// String returns the path as a URL. File paths keep the form they were
// parsed from.
func (p *ObjectStoragePath) String() string {
	if p.Scheme == FileScheme && p.Bucket == "" {
		if p.fileURL {
			return FileScheme + "://" + p.Key
		}
		return p.Key
	}
	if p.Key == "" {
		return p.Scheme + "://" + p.Bucket
	}
	return p.Scheme + "://" + p.Bucket + "/" + p.Key
}

// Join returns a child path
func (p *ObjectStoragePath) Join(elems ...string) *ObjectStoragePath {
	cp := *p
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		if cp.Key == "" || strings.HasSuffix(cp.Key, "/") {
			cp.Key += e
		} else {
			cp.Key += "/" + e
		}
	}
	return &cp
}

// serialized is the mapping form of a path
type serialized struct {
	Path   string         `mapstructure:"path" validate:"required"`
	ConnID string         `mapstructure:"conn_id"`
	Kwargs map[string]any `mapstructure:"kwargs" default:"{}"`
}

// Serialize returns the path as a mapping with path, conn_id and kwargs
// entries
func (p *ObjectStoragePath) Serialize() map[string]any {
	kwargs := make(map[string]any, len(p.Options))
	for k, v := range p.Options {
		kwargs[k] = v
	}
	return map[string]any{
		"path":    p.String(),
		"conn_id": p.ConnID,
		"kwargs":  kwargs,
	}
}

// SerializationVersion returns Version
func (p *ObjectStoragePath) SerializationVersion() int {
	return Version
}

// Deserialize rebuilds a path from the output of Serialize. Data written by
// a newer version is rejected.
func (p *ObjectStoragePath) Deserialize(data map[string]any, version int) (any, error) {
	out, err := Deserialize(data, version)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deserialize rebuilds a path from the output of Serialize
func Deserialize(data map[string]any, version int) (*ObjectStoragePath, error) {
	if version > Version {
		return nil, fmt.Errorf("serialized storage path version %d is newer than supported version %d", version, Version)
	}

	var s serialized
	if err := mapstructure.Decode(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode storage path: %w", err)
	}
	if err := defaults.Set(&s); err != nil {
		return nil, fmt.Errorf("failed to apply storage path defaults: %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	return Parse(s.Path, s.ConnID, s.Kwargs)
}
