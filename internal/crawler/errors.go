package crawler

import "errors"

// ErrFrontierExhausted signals that both frontier tiers are empty. It is
// the one expected terminal condition of a site crawler; the scheduler
// recovers from it by retiring the crawler.
var ErrFrontierExhausted = errors.New("frontier exhausted")

// ErrMultipleRecipes means a single page yielded more than one recipe
// record. Recipe websites do not publish multiple recipes per page, so
// this is an unsupported-input fault that aborts the run rather than
// being silently truncated to one record.
var ErrMultipleRecipes = errors.New("multiple recipes on one page")

// ErrRotationCorrupt means the rotation does not contain a crawler the
// scheduler expected to retire. It indicates internal invariant breakage
// and is not recoverable.
var ErrRotationCorrupt = errors.New("crawler missing from rotation")
