package model

import "github.com/rotisserie/eris"

// ErrPropertyNotFound is returned by property providers when a parcel does
// not exist. It is the only error that aborts an appraisal.
var ErrPropertyNotFound = eris.New("property not found")
