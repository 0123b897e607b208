package notify

import (
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

const (
	keyHeading  = "Zakat reminder for %s"
	keyDueToday = "%s: zakat is due today."
	keyDaysLeft = "%s: %d days left until zakat is due."
)

var supported = []language.Tag{language.English, language.Arabic}

var matcher = language.NewMatcher(supported)

var messages = mustCatalog()

func mustCatalog() catalog.Catalog {
	c, err := newCatalog()
	if err != nil {
		panic(err)
	}

	return c
}

type entry struct {
	tag language.Tag
	key string
	msg catalog.Message
}

func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	entries := []entry{
		{language.English, keyHeading, catalog.String(keyHeading)},
		{language.English, keyDueToday, catalog.String(keyDueToday)},
		{language.English, keyDaysLeft, plural.Selectf(2, "%d",
			"=1", "%s: %d day left until zakat is due.",
			"other", "%s: %d days left until zakat is due.",
		)},
		{language.Arabic, keyHeading, catalog.String("تذكير الزكاة لـ %s")},
		{language.Arabic, keyDueToday, catalog.String("%s: حان موعد الزكاة اليوم.")},
		{language.Arabic, keyDaysLeft, catalog.String("%s: تبقّى %d يومًا على موعد الزكاة.")},
	}

	for class, names := range classNames {
		entries = append(entries,
			entry{language.English, string(class), catalog.String(names[0])},
			entry{language.Arabic, string(class), catalog.String(names[1])},
		)
	}

	for _, e := range entries {
		if err := b.Set(e.tag, e.key, e.msg); err != nil {
			return nil, fmt.Errorf("catalog %s %q: %w", e.tag, e.key, err)
		}
	}

	return b, nil
}

var classNames = map[ledger.Class][2]string{
	ledger.ClassGold:   {"Gold", "الذهب"},
	ledger.ClassSilver: {"Silver", "الفضة"},
	ledger.ClassMoney:  {"Money", "المال"},
}

// Localizer renders reminder text in one of the supported languages.
type Localizer struct {
	printer *message.Printer
}

// NewLocalizer picks the closest supported language to lang; unknown input falls back to English.
func NewLocalizer(lang string) *Localizer {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()

	return &Localizer{printer: message.NewPrinter(language.Make(base.String()), message.Catalog(messages))}
}

func (l *Localizer) Class(c ledger.Class) string {
	return l.printer.Sprintf(string(c))
}

func (l *Localizer) Heading(name string) string {
	return l.printer.Sprintf(keyHeading, name)
}

func (l *Localizer) Reminder(n zakat.Notification) string {
	if n.DaysLeft == 0 {
		return l.printer.Sprintf(keyDueToday, l.Class(n.Class))
	}

	return l.printer.Sprintf(keyDaysLeft, l.Class(n.Class), n.DaysLeft)
}
