package lib

import "encoding/json"

// Prettystats renders a stats map as JSON, indented when pretty is true.
// Panics on marshal failure; stats maps built by this module are always
// plain JSON-safe values (int64, float64, string, nested maps of the
// same), so a marshal error here means a caller put something else in.
func Prettystats(stats map[string]interface{}, pretty bool) string {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(stats, "", "  ")
	} else {
		data, err = json.Marshal(stats)
	}
	if err != nil {
		panic(err)
	}
	return string(data)
}
