package post

// Category — закрытый набор категорий контента. Единственный источник истины
// для фильтра категорий и заголовков дайджестов: строковые литералы категорий
// нигде больше не сравниваются напрямую.
type Category string

const (
	CategoryNews      Category = "novost"
	CategoryOfficial  Category = "admin"
	CategoryCulture   Category = "kultura"
	CategorySport     Category = "sport"
	CategoryAds       Category = "reklama"
	CategoryKids      Category = "detsad"
	CategoryNeighbors Category = "sosed"
)

// fallbackTitle используется для дайджестов категорий без собственного заголовка.
const fallbackTitle = "📋 ВАЖНОЕ"

var categoryTitles = map[Category]string{
	CategoryNews:     "📰 НОВОСТИ",
	CategoryOfficial: "🏛️ ОФИЦИАЛЬНО",
	CategoryCulture:  "🎭 КУЛЬТУРА",
	CategorySport:    "⚽ СПОРТ",
	CategoryAds:      "📢 ОБЪЯВЛЕНИЯ",
}

// Categories перечисляет все известные категории.
func Categories() []Category {
	return []Category{
		CategoryNews,
		CategoryOfficial,
		CategoryCulture,
		CategorySport,
		CategoryAds,
		CategoryKids,
		CategoryNeighbors,
	}
}

// ParseCategory возвращает категорию по строковому коду.
// Второе значение false означает неизвестный код.
func ParseCategory(code string) (Category, bool) {
	c := Category(code)
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Known сообщает, входит ли категория в закрытый набор.
func (c Category) Known() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Title возвращает человекочитаемый заголовок дайджеста для категории.
func (c Category) Title() string {
	if title, ok := categoryTitles[c]; ok {
		return title
	}
	return fallbackTitle
}
