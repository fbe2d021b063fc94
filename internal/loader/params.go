package loader

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// NotSet is the data reference name meaning "derive the name from the path".
const NotSet = "NOT_SET"

// testClassParams are the parameters of the TestClass marker.
type testClassParams struct {
	CreatorThreads any `mapstructure:"creatorThreads"`
}

// instancesParams are the parameters of the Instances marker.
type instancesParams struct {
	Count       any              `mapstructure:"count"`
	ThreadCount any              `mapstructure:"threadCount"`
	Properties  []map[string]any `mapstructure:"properties"`
}

// dataRefParams are the parameters of the DataRef marker.
type dataRefParams struct {
	Path string `mapstructure:"path"`
	Name string `mapstructure:"name"`
}

// decodeParams decodes raw marker parameters into out, rejecting unknown keys.
func decodeParams(class string, m core.Marker, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m.Params); err != nil {
		return &core.ConfigurationError{
			Class:     class,
			Attribute: "@" + m.Name,
			Message:   fmt.Sprintf("Invalid @%s parameters: %v", m.Name, err),
			Guidance:  fmt.Sprintf("Supported parameters: %s.", supportedParams(m.Name)),
		}
	}
	return nil
}

func supportedParams(marker string) string {
	var names []string
	switch marker {
	case core.MarkerTestClass:
		names = []string{"creatorThreads"}
	case core.MarkerInstances:
		names = []string{"count", "threadCount", "properties"}
	case core.MarkerDataRef:
		names = []string{"path", "name"}
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}

// stringify converts user supplied property values to their string form.
func stringify(props map[string]any) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
