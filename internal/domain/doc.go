// Package domain contains the core business entities, value objects, and
// domain logic of the application: the tarot deck and its shuffle/draw
// mechanics, readings, interpretations and their lifecycle, users, and
// aggregate statistics. It is independent of any specific infrastructure
// or delivery mechanism.
package domain
