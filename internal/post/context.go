package post

import "time"

// Region описывает регион, для которого собирается контент.
type Region struct {
	ID       int64    `yaml:"id" json:"id"`
	Code     string   `yaml:"code" json:"code"`
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Hashtags []string `yaml:"hashtags,omitempty" json:"hashtags,omitempty"`
	Neighbors []string `yaml:"neighbors,omitempty" json:"neighbors,omitempty"`
}

// RunContext — явный контекст одного прогона пайплайна. Заменяет глобальное
// состояние: множества уже виденных отпечатков живут ровно один прогон,
// параллельные прогоны по разным регионам не разделяют ничего.
type RunContext struct {
	Region      Region
	ContentType Category
	// IsNeighborContent отмечает, что батч пришёл из сообществ соседнего
	// региона; только к такому контенту применяется региональный фильтр.
	IsNeighborContent bool
	Now               time.Time

	seenStructural map[string]struct{}
	seenText       map[string]struct{}
	seenMedia      map[string]struct{}
}

// NewRunContext создаёт контекст прогона с пустыми множествами отпечатков.
func NewRunContext(region Region, contentType Category, now time.Time) *RunContext {
	return &RunContext{
		Region:         region,
		ContentType:    contentType,
		Now:            now,
		seenStructural: make(map[string]struct{}),
		seenText:       make(map[string]struct{}),
		seenMedia:      make(map[string]struct{}),
	}
}

// MarkStructural запоминает структурный отпечаток в рамках прогона.
func (c *RunContext) MarkStructural(fp string) { c.seenStructural[fp] = struct{}{} }

// SeenStructural сообщает, встречался ли структурный отпечаток в этом прогоне.
func (c *RunContext) SeenStructural(fp string) bool {
	_, ok := c.seenStructural[fp]
	return ok
}

// MarkText запоминает текстовый отпечаток (полный или сердцевины).
func (c *RunContext) MarkText(fp string) {
	if fp != "" {
		c.seenText[fp] = struct{}{}
	}
}

// SeenText сообщает, встречался ли текстовый отпечаток в этом прогоне.
// Пустой отпечаток никогда не считается виденным.
func (c *RunContext) SeenText(fp string) bool {
	if fp == "" {
		return false
	}
	_, ok := c.seenText[fp]
	return ok
}

// MarkMedia запоминает идентификаторы медиа поста.
func (c *RunContext) MarkMedia(ids []string) {
	for _, id := range ids {
		c.seenMedia[id] = struct{}{}
	}
}

// SeenMedia сообщает, встречался ли хотя бы один из идентификаторов медиа.
func (c *RunContext) SeenMedia(ids []string) bool {
	for _, id := range ids {
		if _, ok := c.seenMedia[id]; ok {
			return true
		}
	}
	return false
}
