// Package profile merges the patient profile from its two sources, the
// backend profile endpoint and the claims of the session token.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"risk-assessment-service/internal/domain"
)

// Profile is the patient profile shown next to the risk summary.
type Profile struct {
	UserID           string   `json:"userId"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Address          string   `json:"address,omitempty"`
	Role             string   `json:"role,omitempty"`
	Roles            []string `json:"roles,omitempty"`
	Age              int      `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	AgeGroup         string   `json:"age_group,omitempty"`
	CognitiveStatus  string   `json:"cognitive_status,omitempty"`
	EducationLevel   string   `json:"education_level,omitempty"`
	RiskLevel        string   `json:"risk_level,omitempty"`
	ProfileCompleted bool     `json:"profile_completed"`
}

// Merge combines two profiles field by field. A non-zero primary value wins,
// otherwise the secondary value is used. Roles are taken whole from primary
// when it has any. ProfileCompleted is true if either side says so.
//
// Callers pass the backend profile as primary and the token profile as secondary.
func Merge(primary, secondary Profile) Profile {
	out := Profile{
		UserID:           pick(primary.UserID, secondary.UserID),
		Name:             pick(primary.Name, secondary.Name),
		Email:            pick(primary.Email, secondary.Email),
		Phone:            pick(primary.Phone, secondary.Phone),
		Address:          pick(primary.Address, secondary.Address),
		Role:             pick(primary.Role, secondary.Role),
		Gender:           pick(primary.Gender, secondary.Gender),
		AgeGroup:         pick(primary.AgeGroup, secondary.AgeGroup),
		CognitiveStatus:  pick(primary.CognitiveStatus, secondary.CognitiveStatus),
		EducationLevel:   pick(primary.EducationLevel, secondary.EducationLevel),
		RiskLevel:        pick(primary.RiskLevel, secondary.RiskLevel),
		Age:              primary.Age,
		ProfileCompleted: primary.ProfileCompleted || secondary.ProfileCompleted,
	}
	if out.Age == 0 {
		out.Age = secondary.Age
	}
	switch {
	case len(primary.Roles) > 0:
		out.Roles = append([]string(nil), primary.Roles...)
	case len(secondary.Roles) > 0:
		out.Roles = append([]string(nil), secondary.Roles...)
	}
	return out
}

// ApplyClassification copies a finished classification onto the profile and
// marks it completed.
func ApplyClassification(p Profile, c domain.Classification) Profile {
	p.AgeGroup = c.AgeGroup
	p.CognitiveStatus = c.CognitiveStatus
	p.EducationLevel = c.EducationLevel
	p.RiskLevel = c.RiskLevel
	p.ProfileCompleted = true
	return p
}

// Claims is the subset of token claims the service reads.
type Claims struct {
	UserID string   `json:"userId"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Roles  []string `json:"roles"`
	Age    int      `json:"age"`
	Gender string   `json:"gender"`
	jwt.RegisteredClaims
}

// ErrMalformedToken is returned for tokens that are not three dot-separated segments
// with a JSON payload.
var ErrMalformedToken = errors.New("malformed token")

// ParseClaims decodes the payload of a JWT without verifying its signature.
// The signing key lives with the identity provider.
func ParseClaims(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// FromToken builds the token-side profile.
func FromToken(token string) (Profile, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		UserID: pick(claims.UserID, claims.Subject),
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
		Roles:  claims.Roles,
		Age:    claims.Age,
		Gender: claims.Gender,
	}
	if len(p.Roles) == 0 && claims.Role != "" {
		p.Roles = []string{claims.Role}
	}
	return p, nil
}

// Expired reports whether the token is past its exp claim. Tokens that cannot
// be decoded or carry no exp count as expired.
func Expired(token string, now time.Time) bool {
	claims, err := ParseClaims(token)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(now)
}

func pick(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	return secondary
}
