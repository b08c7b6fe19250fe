package base

import "regexp"

// UIDMatcher validates user-facing resource identifiers. Generated UIDs are
// 22-character shortuuid strings, but imported data may carry shorter ones.
var UIDMatcher = regexp.MustCompile("^[a-zA-Z0-9]([a-zA-Z0-9-]{1,30}[a-zA-Z0-9])$")
