package entity

import "time"

type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Password         string    `json:"-"` // Stored as received; never hashed or checked.
	RegistrationTime time.Time `json:"registration_time"`
}

/*
Schema (postgres):

CREATE TABLE IF NOT EXISTS "user" (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	password VARCHAR(100) NOT NULL,
	registration_time TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX ix_user_name ON "user"(name);

One user owns zero or more ads through ad.owner_id.
*/
