package routes

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Routes ordered market ids, e.g. the hops of a liquidation plan
type Routes []uint64

func (r Routes) String() string {
	parts := make([]string, len(r))
	for idx, id := range r {
		parts[idx] = strconv.FormatUint(id, 10)
	}

	return strings.Join(parts, ">")
}

// NewFromString parse "1>2>3"
func NewFromString(v string) Routes {
	var ids Routes
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == '>' || r == ',' }) {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil
		}
		ids = append(ids, id)
	}

	return ids
}

// First first market id, 0 if empty
func (r Routes) First() uint64 {
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

// Last last market id, 0 if empty
func (r Routes) Last() uint64 {
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

// Contains whether id is in routes
func (r Routes) Contains(id uint64) bool {
	for _, v := range r {
		if v == id {
			return true
		}
	}
	return false
}

func (r Routes) Cmp(other Routes) int {
	if diff := len(r) - len(other); diff < 0 {
		return 1
	} else if diff > 0 {
		return -1
	}

	for idx := range r {
		if r[idx] < other[idx] {
			return 1
		} else if r[idx] > other[idx] {
			return -1
		}
	}

	return 0
}

// sql

func (r Routes) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}

	b, err := json.Marshal([]uint64(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Routes) Scan(src interface{}) error {
	v := cast.ToString(src)

	var ids []uint64
	if err := json.Unmarshal([]byte(v), &ids); err == nil {
		*r = ids
	} else {
		*r = NewFromString(v)
	}

	return nil
}
