package param

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
}

// Binding decodes the query of GET requests and the json body of the others into dst,
// then validates its `valid` tags
func Binding(r *http.Request, dst interface{}) error {
	switch r.Method {
	case http.MethodGet, http.MethodDelete:
		if err := decoder.Decode(dst, r.URL.Query()); err != nil {
			return err
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return err
		}
	}

	_, err := govalidator.ValidateStruct(dst)
	return err
}
