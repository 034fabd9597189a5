// Package messages renders the user-facing texts of unlock outcomes in the
// supported languages (English, Russian).
package messages

import (
	"context"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyAttemptsLeft    = "face not recognised, %d attempts left"
	keyTombstone       = "tombstone"
	keyRejected        = "rejected"
	keyUnlocked        = "unlocked"
	keyAlreadyUnlocked = "already unlocked"
	keyBusy            = "busy"
	keyNotFound        = "not found"
	keyCancelled       = "cancelled"
	keyVerifierTimeout = "verifier timeout, %d attempts left"
)

var supported = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(supported)

var cat = mustBuild()

func mustBuild() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	en := language.English
	must(b.Set(en, keyAttemptsLeft, plural.Selectf(1, "%d",
		plural.One, "Face not recognised. %[1]d attempt left.",
		plural.Other, "Face not recognised. %[1]d attempts left.")))
	must(b.Set(en, keyVerifierTimeout, plural.Selectf(1, "%d",
		plural.One, "Verification timed out and was counted as a failed attempt. %[1]d attempt left.",
		plural.Other, "Verification timed out and was counted as a failed attempt. %[1]d attempts left.")))
	must(b.SetString(en, keyTombstone, common.TombstoneMessage))
	must(b.SetString(en, keyRejected, "This item cannot be opened."))
	must(b.SetString(en, keyUnlocked, "Unlocked."))
	must(b.SetString(en, keyAlreadyUnlocked, "This item is already unlocked."))
	must(b.SetString(en, keyBusy, "Another unlock attempt is in progress. Try again shortly."))
	must(b.SetString(en, keyNotFound, "Item not found."))
	must(b.SetString(en, keyCancelled, "Unlock cancelled."))

	ru := language.Russian
	must(b.Set(ru, keyAttemptsLeft, plural.Selectf(1, "%d",
		plural.One, "Лицо не распознано. Осталась %[1]d попытка.",
		plural.Few, "Лицо не распознано. Осталось %[1]d попытки.",
		plural.Many, "Лицо не распознано. Осталось %[1]d попыток.",
		plural.Other, "Лицо не распознано. Осталось %[1]d попыток.")))
	must(b.Set(ru, keyVerifierTimeout, plural.Selectf(1, "%d",
		plural.One, "Время проверки истекло, попытка засчитана как неудачная. Осталась %[1]d попытка.",
		plural.Few, "Время проверки истекло, попытка засчитана как неудачная. Осталось %[1]d попытки.",
		plural.Many, "Время проверки истекло, попытка засчитана как неудачная. Осталось %[1]d попыток.",
		plural.Other, "Время проверки истекло, попытка засчитана как неудачная. Осталось %[1]d попыток.")))
	must(b.SetString(ru, keyTombstone, "СООБЩЕНИЕ УДАЛЕНО"))
	must(b.SetString(ru, keyRejected, "Этот элемент нельзя открыть."))
	must(b.SetString(ru, keyUnlocked, "Разблокировано."))
	must(b.SetString(ru, keyAlreadyUnlocked, "Этот элемент уже разблокирован."))
	must(b.SetString(ru, keyBusy, "Выполняется другая попытка разблокировки. Повторите позже."))
	must(b.SetString(ru, keyNotFound, "Элемент не найден."))
	must(b.SetString(ru, keyCancelled, "Разблокировка отменена."))
	return b
}

// Printer renders messages for one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New picks the closest supported language for locale (a BCP 47 tag or an
// Accept-Language value); anything unknown falls back to English.
func New(locale string) *Printer {
	tag := language.English
	if prefs, _, err := language.ParseAcceptLanguage(locale); err == nil && len(prefs) > 0 {
		_, idx, conf := matcher.Match(prefs...)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

func (p *Printer) Language() language.Tag { return p.tag }

func (p *Printer) Tombstone() string { return p.p.Sprintf(keyTombstone) }

// ForResult returns the text shown to the requester for r.
func (p *Printer) ForResult(r *models.UnlockResult) string {
	switch r.Outcome {
	case models.OutcomeSuccess:
		return p.p.Sprintf(keyUnlocked)
	case models.OutcomeFailed:
		if r.Reason == models.ReasonVerifierTimeout || r.Reason == models.ReasonVerifierError {
			return p.p.Sprintf(keyVerifierTimeout, r.AttemptsRemaining)
		}
		return p.p.Sprintf(keyAttemptsLeft, r.AttemptsRemaining)
	case models.OutcomeDestroyed, models.OutcomeAlreadyDestroyed:
		return p.Tombstone()
	case models.OutcomeUnauthorized:
		return p.p.Sprintf(keyRejected)
	case models.OutcomeAlreadyUnlocked:
		return p.p.Sprintf(keyAlreadyUnlocked)
	case models.OutcomeBusy:
		return p.p.Sprintf(keyBusy)
	case models.OutcomeNotFound:
		return p.p.Sprintf(keyNotFound)
	case models.OutcomeCancelled:
		return p.p.Sprintf(keyCancelled)
	}
	return ""
}

type localeKey struct{}

// WithLocale stores the caller's preferred locale (BCP 47 or Accept-Language).
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// FromContext returns a Printer for the locale stored in ctx, or for
// fallback when there is none.
func FromContext(ctx context.Context, fallback string) *Printer {
	if l, ok := ctx.Value(localeKey{}).(string); ok && l != "" {
		return New(l)
	}
	return New(fallback)
}
