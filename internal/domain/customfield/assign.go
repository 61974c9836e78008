package customfield

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	appctx "customfields/internal/core/context"
	"customfields/internal/core/numerator"
)

const (
	slugMaxLength = 65

	// fallbackSlug is used for names without a single latin letter.
	fallbackSlug = "field"

	optionIDPrefix = "opt_"
)

var (
	nonLetterPattern  = regexp.MustCompile(`[^A-Za-z\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Slug turns a display name into the base of a refId: diacritics stripped,
// non-letters dropped, whitespace runs joined by '-', lowercase, at most 65 chars.
func Slug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}

	s := nonLetterPattern.ReplaceAllString(plain, "")
	s = strings.TrimSpace(s)
	s = whitespacePattern.ReplaceAllString(s, "-")
	s = strings.ToLower(s)
	if len(s) > slugMaxLength {
		s = s[:slugMaxLength]
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// RefID builds "<slug>_<n>".
func RefID(slug string, n int64) string {
	return slug + "_" + strconv.FormatInt(n, 10)
}

// RefIDSuffix extracts n from "<slug>_<n>".
func RefIDSuffix(refID, slug string) (int64, bool) {
	rest, ok := strings.CutPrefix(refID, slug+"_")
	if !ok {
		return 0, false
	}
	return parsePositive(rest)
}

// OptionID builds "opt_<n>".
func OptionID(n int64) string {
	return optionIDPrefix + strconv.FormatInt(n, 10)
}

// OptionIDSuffix extracts n from "opt_<n>".
func OptionIDSuffix(optionID string) (int64, bool) {
	rest, ok := strings.CutPrefix(optionID, optionIDPrefix)
	if !ok {
		return 0, false
	}
	return parsePositive(rest)
}

func parsePositive(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Assignor computes refId, order and option ids. Its methods are meant to run
// inside Store.RunAtomic so reads and writes share one transaction.
type Assignor struct {
	store Store
	seq   numerator.Allocator
	now   func() time.Time
}

// NewAssignor creates an Assignor.
func NewAssignor(store Store, seq numerator.Allocator) *Assignor {
	return &Assignor{store: store, seq: seq, now: time.Now}
}

// NextOrder returns the order for a definition appended at the end.
func (a *Assignor) NextOrder(ctx context.Context, tenantID string) (int, error) {
	maxOrder, err := a.store.MaxOrder(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("max order: %w", err)
	}
	return maxOrder + 1, nil
}

// AssignRefID mints a fresh refId from d.Name.
// The counter never moves back, so a name reused later gets a new suffix.
func (a *Assignor) AssignRefID(ctx context.Context, tenantID string, d *Definition) error {
	slug := Slug(d.Name)
	floor, err := a.store.MaxRefIDSuffix(ctx, tenantID, slug)
	if err != nil {
		return fmt.Errorf("max refId suffix for %q: %w", slug, err)
	}
	n, err := a.seq.Next(ctx, tenantID, "refid:"+slug, floor)
	if err != nil {
		return fmt.Errorf("allocate refId for %q: %w", slug, err)
	}
	d.RefID = RefID(slug, n)
	return nil
}

// AssignOptionIDs gives every option without id a new "opt_<n>" and
// rewrites the defaults as option ids. previous is the stored version of d
// (nil on create); its option ids count as used. Ids supplied by the client
// are reserved on the counter, so they are not handed out after removal.
func (a *Assignor) AssignOptionIDs(ctx context.Context, tenantID string, d, previous *Definition) error {
	c, ok := d.SelectConfig()
	if !ok || c.Options == nil {
		return nil
	}

	var floor int64
	for _, src := range []*Definition{previous, d} {
		if src == nil {
			continue
		}
		for _, optID := range src.OptionIDs() {
			if n, ok := OptionIDSuffix(optID); ok && n > floor {
				floor = n
			}
		}
	}

	key := "option:" + d.ID
	if floor > 0 {
		if err := a.seq.Reserve(ctx, tenantID, key, floor); err != nil {
			return fmt.Errorf("reserve option ids for %s: %w", d.ID, err)
		}
	}

	for _, o := range c.Options.Values {
		if o == nil || o.ID != "" {
			continue
		}
		n, err := a.seq.Next(ctx, tenantID, key, floor)
		if err != nil {
			return fmt.Errorf("allocate option id for %s: %w", d.ID, err)
		}
		o.ID = OptionID(n)
		floor = n
	}

	normalizeDefaults(c)
	return nil
}

// normalizeDefaults flags the selected options and keeps their ids as the
// canonical defaults list.
func normalizeDefaults(c *SelectConfig) {
	if c.Defaults != nil {
		selected := make(map[*SelectOption]bool, len(c.Defaults))
		for _, ref := range c.Defaults {
			if o := findOption(c.Options.Values, ref); o != nil {
				selected[o] = true
			}
		}
		for _, o := range c.Options.Values {
			if o != nil {
				o.IsDefault = selected[o]
			}
		}
	}

	var ids []string
	for _, o := range c.Options.Values {
		if o != nil && o.IsDefault {
			ids = append(ids, o.ID)
		}
	}
	c.Defaults = ids
}

// Renumber rewrites order to 1..N following the current order.
func (a *Assignor) Renumber(ctx context.Context, tenantID string) error {
	defs, err := a.store.FindAll(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}
	for i, d := range defs {
		if d.Order == i+1 {
			continue
		}
		d.Order = i + 1
		if _, err := a.store.Update(ctx, tenantID, d); err != nil {
			return fmt.Errorf("renumber %s: %w", d.ID, err)
		}
	}
	return nil
}

// Stamp sets metadata for a write by the actor in ctx. created is the
// metadata of the stored version, nil on create.
func (a *Assignor) Stamp(ctx context.Context, d *Definition, created *Metadata) {
	actor := appctx.ResolveActor(ctx)
	now := a.now().UTC()

	if created == nil {
		d.Metadata = &Metadata{
			CreatedDate:       now,
			CreatedByUserID:   actor.ID,
			CreatedByUsername: actor.DisplayName,
		}
		return
	}

	md := *created
	md.UpdatedDate = &now
	md.UpdatedByUserID = actor.ID
	md.UpdatedByUsername = actor.DisplayName
	d.Metadata = &md
}
