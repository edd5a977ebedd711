package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

type Ad struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	RegistrationTime time.Time `json:"registration_time"`
	OwnerID          *int64    `json:"owner_id"` // nil when the ad has no owner.
}

// Apply overwrites the ad with every writable field present in fields and returns
// the names of the columns that were set, in a stable order.
//
// Writable fields are title, description, owner_id and registration_time (epoch
// seconds). Keys that name no writable column, id included, are skipped.
func (a *Ad) Apply(fields map[string]json.RawMessage) ([]string, error) {
	var columns []string
	for _, name := range []string{"title", "description", "owner_id", "registration_time"} {
		raw, ok := fields[name]
		if !ok {
			continue
		}

		var err error
		switch name {
		case "title":
			err = json.Unmarshal(raw, &a.Title)
		case "description":
			err = json.Unmarshal(raw, &a.Description)
		case "owner_id":
			var owner *int64
			if err = json.Unmarshal(raw, &owner); err == nil {
				a.OwnerID = owner
			}
		case "registration_time":
			var sec int64
			if err = json.Unmarshal(raw, &sec); err == nil {
				a.RegistrationTime = time.Unix(sec, 0).UTC()
			}
		}
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		columns = append(columns, name)
	}
	return columns, nil
}

/*
Schema (postgres):

CREATE TABLE IF NOT EXISTS ad (
	id SERIAL PRIMARY KEY,
	title VARCHAR(50) NOT NULL,
	description VARCHAR(255) NOT NULL,
	registration_time TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	owner_id INTEGER REFERENCES "user"(id)
);
*/
