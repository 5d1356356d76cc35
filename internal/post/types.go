package post

import (
	"fmt"
	"time"
)

// Status отражает решение пайплайна по посту.
type Status string

const (
	StatusNew      Status = "new"      // пост только получен из мониторинга
	StatusRejected Status = "rejected" // отсеян одним из фильтров
	StatusApproved Status = "approved" // прошёл все фильтры, допущен к агрегации
)

// Attachment описывает вложение поста VK. Заполняется только поле,
// соответствующее типу; остальные остаются nil.
type Attachment struct {
	Type  string `json:"type"`
	Photo *Photo `json:"photo,omitempty"`
	Video *Video `json:"video,omitempty"`
	Doc   *Doc   `json:"doc,omitempty"`
}

// Photo — фотовложение.
type Photo struct {
	ID int64 `json:"id"`
}

// Video — видеовложение. Идентификатор видео уникален только в паре с владельцем.
type Video struct {
	OwnerID int64 `json:"owner_id"`
	ID      int64 `json:"id"`
}

// Doc — документ. Kind == DocKindGIF означает анимированное изображение.
type Doc struct {
	ID   int64 `json:"id"`
	Kind int   `json:"type"`
}

// DocKindGIF — подтип документа "анимированное изображение" в нумерации VK.
const DocKindGIF = 3

// Fingerprints — набор отпечатков поста для дедупликации.
// Пустой текстовый отпечаток означает "недоступен", а не "совпадает со всем".
type Fingerprints struct {
	Structural string   `json:"structural"`
	MediaIDs   []string `json:"media_ids,omitempty"`
	TextHash   string   `json:"text_hash,omitempty"`
	TextCore   string   `json:"text_core_hash,omitempty"`
}

// Post — запись из мониторинга сообществ. Отсутствующие необязательные поля
// равны нулевым значениям; защитных проверок на их наличие не требуется.
type Post struct {
	ID          int64     `json:"id"`
	RegionID    int64     `json:"region_id"`
	CommunityID int64     `json:"community_id"`
	OwnerID     int64     `json:"owner_id"`
	PostID      int64     `json:"post_id"`
	FromID      int64     `json:"from_id,omitempty"`
	Text        string    `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	Views    int `json:"views"`
	Likes    int `json:"likes"`
	Reposts  int `json:"reposts"`
	Comments int `json:"comments"`

	Fingerprints Fingerprints `json:"fingerprints"`

	Status       Status   `json:"status,omitempty"`
	Category     Category `json:"category,omitempty"`
	Relevance    int      `json:"relevance,omitempty"`
	IsSpam       bool     `json:"is_spam,omitempty"`
	RejectReason string   `json:"reject_reason,omitempty"`
	Score        int      `json:"score,omitempty"`
}

// HasMedia сообщает, несёт ли пост хотя бы одно распознанное медиавложение.
func (p *Post) HasMedia() bool {
	return len(p.Fingerprints.MediaIDs) > 0 || len(p.Attachments) > 0
}

// MediaCount возвращает количество медиаэлементов поста для лимитов дайджеста.
func (p *Post) MediaCount() int {
	if n := len(p.Fingerprints.MediaIDs); n > 0 {
		return n
	}
	return len(p.Attachments)
}

// WallRef возвращает ссылку вида @wall{owner}_{post} для атрибуции источника.
func (p *Post) WallRef() string {
	return fmt.Sprintf("@wall%d_%d", p.OwnerID, p.PostID)
}
