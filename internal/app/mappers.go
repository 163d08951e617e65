package app

import (
	"strconv"
	"strings"

	"review_hero/internal/domain"
)

/********** alias registries **********/

var whopUserAliases = map[string][]string{
	"id":       {"id", "user_id", "sub"},
	"email":    {"email", "user.email", "email_address"},
	"username": {"username", "user.username", "preferred_username"},
	"name":     {"name", "user.name", "display_name"},
}

var membershipAliases = map[string][]string{
	"id":      {"id", "membership_id", "membership.id"},
	"user_id": {"user_id", "user", "user.id", "member.user_id"},
	"plan_id": {"plan_id", "plan", "plan.id", "product_id", "product"},
	"status":  {"status", "membership.status"},
	"email":   {"email", "user.email", "member.email"},
}

var paymentAliases = map[string][]string{
	"id":            {"id", "payment_id", "receipt_id"},
	"user_id":       {"user_id", "user", "user.id"},
	"membership_id": {"membership_id", "membership", "membership.id"},
	"currency":      {"currency", "currency_code"},
	"status":        {"status"},
}

var placeAliases = map[string][]string{
	"place_id": {"place_id", "id", "placeId"},
	"name":     {"name", "displayName.text", "display_name"},
	"address":  {"formatted_address", "formattedAddress", "vicinity", "address"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstBoolFlexible: bool from several paths (bool or "true"/"false").
func firstBoolFlexible(m map[string]any, paths ...string) *bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			b := v
			return &b
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return &b
			}
		}
	}
	return nil
}

/********** whop mappers **********/

func mapWhopUser(m map[string]any) domain.WhopUser {
	return domain.WhopUser{
		ID:       deref(firstNonEmptyAlias(m, whopUserAliases, "id")),
		Email:    deref(firstNonEmptyAlias(m, whopUserAliases, "email")),
		Username: deref(firstNonEmptyAlias(m, whopUserAliases, "username")),
		Name:     deref(firstNonEmptyAlias(m, whopUserAliases, "name")),
	}
}

// mapMembership reads a membership webhook payload. Valid falls back to the
// status when the provider omits the flag.
func mapMembership(m map[string]any) domain.Membership {
	ms := domain.Membership{
		ID:     deref(firstNonEmptyAlias(m, membershipAliases, "id")),
		UserID: deref(firstNonEmptyAlias(m, membershipAliases, "user_id")),
		PlanID: deref(firstNonEmptyAlias(m, membershipAliases, "plan_id")),
		Status: strings.ToLower(deref(firstNonEmptyAlias(m, membershipAliases, "status"))),
		Email:  deref(firstNonEmptyAlias(m, membershipAliases, "email")),
	}
	if v := firstBoolFlexible(m, "valid", "is_valid"); v != nil {
		ms.Valid = *v
	} else {
		ms.Valid = ms.Status == "active" || ms.Status == "trialing" || ms.Status == "completed"
	}
	return ms
}

func mapPayment(m map[string]any) domain.Payment {
	p := domain.Payment{
		ID:           deref(firstNonEmptyAlias(m, paymentAliases, "id")),
		UserID:       deref(firstNonEmptyAlias(m, paymentAliases, "user_id")),
		MembershipID: deref(firstNonEmptyAlias(m, paymentAliases, "membership_id")),
		Currency:     strings.ToLower(deref(firstNonEmptyAlias(m, paymentAliases, "currency"))),
		Status:       deref(firstNonEmptyAlias(m, paymentAliases, "status")),
	}
	if f := getFloatFlexible(m, "final_amount", "amount", "subtotal"); f != nil {
		p.Amount = *f
	}
	return p
}

/********** places mapper **********/

func mapPlace(m map[string]any) domain.PlaceResult {
	pr := domain.PlaceResult{
		PlaceID: deref(firstNonEmptyAlias(m, placeAliases, "place_id")),
		Name:    deref(firstNonEmptyAlias(m, placeAliases, "name")),
		Address: deref(firstNonEmptyAlias(m, placeAliases, "address")),
		Rating:  getFloatFlexible(m, "rating"),
	}
	if n := firstInt64Flexible(m, "user_ratings_total", "userRatingCount", "review_count"); n != nil {
		c := int(*n)
		pr.ReviewCount = &c
	}
	return pr
}

func mapPlaces(in []map[string]any, limit int) []domain.PlaceResult {
	out := make([]domain.PlaceResult, 0, min(len(in), limit))
	for _, m := range in {
		if len(out) == limit {
			break
		}
		p := mapPlace(m)
		if p.PlaceID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
