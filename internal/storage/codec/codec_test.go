package codec

import (
	"testing"

	"metrics-buffer/pkg/errs"
	"metrics-buffer/pkg/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecs(t *testing.T) {

	m, err := metric.CreateMetric(metric.GaugeType, "Login_Stats", metric.WithValueFloat(12.5))
	require.NoError(t, err)

	codecs := map[string]Codec[metric.Metric]{
		"json": JSON[metric.Metric]{},
		"gob":  Gob[metric.Metric]{},
	}

	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {

			data, err := c.Encode(m)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			got, err := c.Decode(data)
			require.NoError(t, err)
			assert.True(t, m.Equal(got))

			_, err = c.Decode(data[:len(data)/2])
			assert.ErrorIs(t, err, errs.ErrDecoding, "truncated data")

			_, err = c.Decode(nil)
			assert.ErrorIs(t, err, errs.ErrDecoding, "empty data")
		})
	}
}

func TestJSON_DecodeWrongType(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "Array => [ERROR]",
			data: `[1,2,3]`,
		},
		{
			name: "Two values => [ERROR]",
			data: `{"id":"a","type":"gauge","value":1} {"id":"b"}`,
		},
		{
			name: "Null => [ERROR]",
			data: ` null `,
		},
		{
			name: "Empty object => [ERROR]",
			data: `{}`,
		},
		{
			name: "Unrelated object => [ERROR]",
			data: `{"unrelated":true}`,
		},
		{
			name: "Unknown field next to metric => [ERROR]",
			data: `{"id":"Alloc","type":"gauge","value":1,"extra":1}`,
		},
		{
			name: "Metric without value => [ERROR]",
			data: `{"id":"Alloc","type":"gauge"}`,
		},
		{
			name: "Metric of unknown type => [ERROR]",
			data: `{"id":"Alloc","type":"histogram","value":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON[metric.Metric]{}.Decode([]byte(tt.data))
			assert.ErrorIs(t, err, errs.ErrDecoding)
		})
	}
}

func TestJSON_DecodeWithoutValidator(t *testing.T) {

	got, err := JSON[map[string]int]{}.Decode([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, got)

	_, err = JSON[map[string]int]{}.Decode([]byte(`null`))
	assert.ErrorIs(t, err, errs.ErrDecoding)
}

type other struct {
	Name string
}

func TestGob_DecodeWrongType(t *testing.T) {

	data, err := Gob[other]{}.Encode(other{Name: "foreign"})
	require.NoError(t, err)

	_, err = Gob[metric.Metric]{}.Decode(data)
	assert.ErrorIs(t, err, errs.ErrDecoding)

	empty, err := Gob[metric.Metric]{}.Encode(metric.Metric{})
	require.NoError(t, err)

	_, err = Gob[metric.Metric]{}.Decode(empty)
	assert.ErrorIs(t, err, errs.ErrDecoding)
}

func TestJSON_EncodeUnsupported(t *testing.T) {

	_, err := JSON[chan int]{}.Encode(make(chan int))
	assert.ErrorIs(t, err, errs.ErrEncoding)
}
