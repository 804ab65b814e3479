package s3types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/testutil"
)

func validObject() ObjectIdentity {
	return ObjectIdentity{Bucket: "my-bucket", Key: "dir/file.bin", Client: &testutil.MockS3Client{}}
}

func TestObjectIdentity(t *testing.T) {
	client := &testutil.MockS3Client{}
	a := ObjectIdentity{Bucket: "b1", Key: "k", Client: client}
	b := ObjectIdentity{Bucket: "b1", Key: "k", Client: client}
	c := ObjectIdentity{Bucket: "b1", Key: "k", Client: &testutil.MockS3Client{}}

	assert.True(t, a == b)
	assert.False(t, a == c)
	assert.Equal(t, "s3://b1/k", a.String())
}

func TestSizeMode(t *testing.T) {
	tests := []struct {
		input string
		want  SizeMode
		ok    bool
	}{
		{"", SizeModeReactive, true},
		{"reactive", SizeModeReactive, true},
		{"declared", SizeModeDeclared, true},
		{"eager", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSizeMode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "reactive", SizeModeReactive.String())
	assert.Equal(t, "declared", SizeModeDeclared.String())
	assert.Equal(t, "unknown", SizeMode(5).String())
}

func TestWriterConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*WriterConfig)
		wantErr  bool
		contains string
	}{
		{name: "defaults", mutate: func(*WriterConfig) {}},
		{name: "maximum part size", mutate: func(c *WriterConfig) { c.MinPartSize = MaxPartSize }},
		{name: "below minimum", mutate: func(c *WriterConfig) { c.MinPartSize = MinPartSize - 1 }, wantErr: true, contains: "MinPartSize"},
		{name: "above maximum", mutate: func(c *WriterConfig) { c.MinPartSize = MaxPartSize + 1 }, wantErr: true, contains: "MinPartSize"},
		{name: "missing bucket", mutate: func(c *WriterConfig) { c.Object.Bucket = "" }, wantErr: true, contains: "Object.Bucket"},
		{name: "missing key", mutate: func(c *WriterConfig) { c.Object.Key = "" }, wantErr: true, contains: "Object.Key"},
		{name: "missing client", mutate: func(c *WriterConfig) { c.Object.Client = nil }, wantErr: true, contains: "client is required"},
		{name: "traversal key", mutate: func(c *WriterConfig) { c.Object.Key = "../x" }, wantErr: true, contains: "traversal"},
		{name: "bad content type", mutate: func(c *WriterConfig) { c.ContentType = "nonsense" }, wantErr: true, contains: "MIME"},
		{name: "bad storage class", mutate: func(c *WriterConfig) { c.StorageClass = "TAPE" }, wantErr: true, contains: "TAPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WriterConfig{Object: validObject()}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestWriterConfig_ApplyDefaults(t *testing.T) {
	cfg := WriterConfig{}
	cfg.ApplyDefaults()
	assert.Equal(t, 5*bytesize.MiB, cfg.MinPartSize)

	cfg = WriterConfig{MinPartSize: 8 * bytesize.MiB}
	cfg.ApplyDefaults()
	assert.Equal(t, 8*bytesize.MiB, cfg.MinPartSize)
}

func TestWriterConfig_ValidateJoinsProblems(t *testing.T) {
	cfg := WriterConfig{MinPartSize: bytesize.KiB, ContentType: "bad"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"Object.Bucket", "Object.Key", "client is required", "MinPartSize", "MIME"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestReaderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ReaderConfig
		wantErr bool
	}{
		{name: "reactive", cfg: ReaderConfig{Object: validObject()}},
		{name: "declared with size", cfg: ReaderConfig{Object: validObject(), SizeMode: SizeModeDeclared, Size: 10, SizeKnown: true}},
		{name: "declared without size", cfg: ReaderConfig{Object: validObject(), SizeMode: SizeModeDeclared}},
		{name: "size with reactive", cfg: ReaderConfig{Object: validObject(), Size: 10, SizeKnown: true}, wantErr: true},
		{name: "negative size", cfg: ReaderConfig{Object: validObject(), SizeMode: SizeModeDeclared, Size: -1, SizeKnown: true}, wantErr: true},
		{name: "unknown mode", cfg: ReaderConfig{Object: validObject(), SizeMode: 3}, wantErr: true},
		{name: "invalid bucket", cfg: ReaderConfig{Object: ObjectIdentity{Bucket: "UPPER", Key: "k", Client: &testutil.MockS3Client{}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.IsInvalidConfig(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
