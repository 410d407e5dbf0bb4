package model

import (
	"fmt"
	"strings"
)

type CareType string

const (
	CareFeeding CareType = "feeding"
	CareDiaper  CareType = "diaper"
	CareSleep   CareType = "sleep"
	CareBath    CareType = "bath"
	CareOther   CareType = "other"
)

// CareTypes lists every care type in display order.
var CareTypes = []CareType{CareFeeding, CareDiaper, CareSleep, CareBath, CareOther}

func (t CareType) Valid() bool {
	switch t {
	case CareFeeding, CareDiaper, CareSleep, CareBath, CareOther:
		return true
	}
	return false
}

func (t CareType) String() string {
	switch t {
	case CareFeeding:
		return "Feeding"
	case CareDiaper:
		return "Diaper"
	case CareSleep:
		return "Sleep"
	case CareBath:
		return "Bath"
	case CareOther:
		return "Other"
	}
	return "Unknown"
}

func (t CareType) Symbol() string {
	switch t {
	case CareFeeding:
		return "🍼"
	case CareDiaper:
		return "🚼"
	case CareSleep:
		return "😴"
	case CareBath:
		return "🛁"
	case CareOther:
		return "🧸"
	}
	return "?"
}

// ParseCareType accepts the stored value case-insensitively.
func ParseCareType(value string) (CareType, error) {
	t := CareType(normalize(value))
	if !t.Valid() {
		return "", fmt.Errorf("%w: care type %q", ErrUnknownVariant, value)
	}
	return t, nil
}

type FeedingType string

const (
	FeedBreast           FeedingType = "breast"
	FeedFormula          FeedingType = "formula"
	FeedBreastAndFormula FeedingType = "breast_and_formula"
	FeedSolid            FeedingType = "solid"
)

func (t FeedingType) Valid() bool {
	switch t {
	case FeedBreast, FeedFormula, FeedBreastAndFormula, FeedSolid:
		return true
	}
	return false
}

func (t FeedingType) String() string {
	switch t {
	case FeedBreast:
		return "Breast"
	case FeedFormula:
		return "Formula"
	case FeedBreastAndFormula:
		return "Breast and Formula"
	case FeedSolid:
		return "Solid"
	}
	return "Unknown"
}

func ParseFeedingType(value string) (FeedingType, error) {
	t := FeedingType(strings.ReplaceAll(normalize(value), "-", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("%w: feeding type %q", ErrUnknownVariant, value)
	}
	return t, nil
}

type FeedingMethod string

const (
	MethodBottle FeedingMethod = "bottle"
	MethodBreast FeedingMethod = "breast"
)

func (m FeedingMethod) Valid() bool {
	return m == MethodBottle || m == MethodBreast
}

func (m FeedingMethod) String() string {
	switch m {
	case MethodBottle:
		return "Bottle"
	case MethodBreast:
		return "Breast"
	}
	return "Unknown"
}

func ParseFeedingMethod(value string) (FeedingMethod, error) {
	m := FeedingMethod(normalize(value))
	if !m.Valid() {
		return "", fmt.Errorf("%w: feeding method %q", ErrUnknownVariant, value)
	}
	return m, nil
}

type DiaperType string

const (
	DiaperWet   DiaperType = "wet"
	DiaperDirty DiaperType = "dirty"
	DiaperMixed DiaperType = "mixed"
	DiaperNone  DiaperType = "none"
)

func (t DiaperType) Valid() bool {
	switch t {
	case DiaperWet, DiaperDirty, DiaperMixed, DiaperNone:
		return true
	}
	return false
}

func (t DiaperType) String() string {
	switch t {
	case DiaperWet:
		return "Wet"
	case DiaperDirty:
		return "Dirty"
	case DiaperMixed:
		return "Wet and Dirty"
	case DiaperNone:
		return "Dry"
	}
	return "Unknown"
}

// HasStool reports whether texture and color apply.
func (t DiaperType) HasStool() bool {
	return t == DiaperDirty || t == DiaperMixed
}

// HasUrine reports whether amount applies.
func (t DiaperType) HasUrine() bool {
	return t == DiaperWet || t == DiaperMixed
}

func ParseDiaperType(value string) (DiaperType, error) {
	t := DiaperType(normalize(value))
	if !t.Valid() {
		return "", fmt.Errorf("%w: diaper type %q", ErrUnknownVariant, value)
	}
	return t, nil
}

type DiaperAmount string

const (
	AmountLittle DiaperAmount = "little"
	AmountNormal DiaperAmount = "normal"
	AmountMuch   DiaperAmount = "much"
)

func (a DiaperAmount) Valid() bool {
	switch a {
	case AmountLittle, AmountNormal, AmountMuch:
		return true
	}
	return false
}

func (a DiaperAmount) String() string {
	switch a {
	case AmountLittle:
		return "Little"
	case AmountNormal:
		return "Normal"
	case AmountMuch:
		return "Much"
	}
	return "Unknown"
}

func ParseDiaperAmount(value string) (DiaperAmount, error) {
	a := DiaperAmount(normalize(value))
	if !a.Valid() {
		return "", fmt.Errorf("%w: diaper amount %q", ErrUnknownVariant, value)
	}
	return a, nil
}

// DiaperTexture is optional; the empty value means unset.
type DiaperTexture string

const (
	TextureNormal DiaperTexture = "normal"
	TextureWatery DiaperTexture = "watery"
	TextureSolid  DiaperTexture = "solid"
)

func (t DiaperTexture) Valid() bool {
	switch t {
	case "", TextureNormal, TextureWatery, TextureSolid:
		return true
	}
	return false
}

func (t DiaperTexture) String() string {
	switch t {
	case TextureNormal:
		return "Normal"
	case TextureWatery:
		return "Watery"
	case TextureSolid:
		return "Solid"
	case "":
		return ""
	}
	return "Unknown"
}

func ParseDiaperTexture(value string) (DiaperTexture, error) {
	t := DiaperTexture(normalize(value))
	if !t.Valid() {
		return "", fmt.Errorf("%w: diaper texture %q", ErrUnknownVariant, value)
	}
	return t, nil
}

// DiaperColor is optional; the empty value means unset.
type DiaperColor string

const (
	ColorYellow DiaperColor = "yellow"
	ColorGreen  DiaperColor = "green"
	ColorBrown  DiaperColor = "brown"
	ColorRed    DiaperColor = "red"
	ColorBlack  DiaperColor = "black"
)

func (c DiaperColor) Valid() bool {
	switch c {
	case "", ColorYellow, ColorGreen, ColorBrown, ColorRed, ColorBlack:
		return true
	}
	return false
}

func (c DiaperColor) String() string {
	switch c {
	case ColorYellow:
		return "Yellow"
	case ColorGreen:
		return "Green"
	case ColorBrown:
		return "Brown"
	case ColorRed:
		return "Red"
	case ColorBlack:
		return "Black"
	case "":
		return ""
	}
	return "Unknown"
}

func ParseDiaperColor(value string) (DiaperColor, error) {
	c := DiaperColor(normalize(value))
	if !c.Valid() {
		return "", fmt.Errorf("%w: diaper color %q", ErrUnknownVariant, value)
	}
	return c, nil
}

func normalize(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
