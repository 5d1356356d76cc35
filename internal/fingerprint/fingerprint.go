// Package fingerprint вычисляет отпечатки постов для дедупликации.
//
// Четыре вида отпечатков:
//   - структурный: точная идентичность записи (owner_id + post_id);
//   - медиа: идентификаторы вложений;
//   - текстовый: хеш полностью нормализованного текста;
//   - сердцевина: хеш среднего среза (20%–70%) нормализованного текста,
//     устойчивый к различающимся приветствиям и подписям по краям.
//
// Все функции чистые: без I/O, без побочных эффектов.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/maine/region_digest_bot/internal/post"
)

// coreMinLen — минимальная длина нормализованного текста (в рунах), начиная
// с которой берётся сердцевина. Короче — хешируется полный текст.
// Константа унаследована из эксплуатации исходной системы; менять её —
// продуктовое решение, а не багфикс.
const coreMinLen = 20

// Structural возвращает структурный отпечаток "{owner_id}_{post_id}".
// Равенство отпечатков эквивалентно совпадению записи на платформе.
func Structural(ownerID, postID int64) string {
	return fmt.Sprintf("%d_%d", ownerID, postID)
}

// Media извлекает идентификаторы медиавложений. Порядок сохраняется,
// повторные идентификаторы не схлопываются. Неизвестные и неполные
// вложения молча пропускаются.
func Media(attachments []post.Attachment) []string {
	if len(attachments) == 0 {
		return nil
	}

	ids := make([]string, 0, len(attachments))
	for _, att := range attachments {
		switch att.Type {
		case "photo":
			if att.Photo != nil && att.Photo.ID != 0 {
				ids = append(ids, fmt.Sprintf("photo_%d", att.Photo.ID))
			}
		case "video":
			// Идентификатор видео уникален только вместе с владельцем.
			if att.Video != nil && att.Video.OwnerID != 0 && att.Video.ID != 0 {
				ids = append(ids, fmt.Sprintf("video_%d_%d", att.Video.OwnerID, att.Video.ID))
			}
		case "doc":
			if att.Doc != nil && att.Doc.Kind == post.DocKindGIF && att.Doc.ID != 0 {
				ids = append(ids, fmt.Sprintf("doc_%d", att.Doc.ID))
			}
		}
	}
	return ids
}

// Normalize приводит текст к "рафинаду": нижний регистр, только латинские
// и кириллические буквы и цифры. Пробелы, пунктуация, эмодзи и прочий шум
// отбрасываются.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'а' && r <= 'я':
			sb.WriteRune(r)
		case r == 'ё':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Text возвращает отпечаток полного нормализованного текста.
// Пустой нормализованный текст даёт пустой отпечаток: вызывающий код обязан
// трактовать его как "недоступен", а не как совпадение.
func Text(text string) string {
	rafinad := Normalize(text)
	if rafinad == "" {
		return ""
	}
	return hashHex(rafinad)
}

// TextCore возвращает отпечаток сердцевины текста: среза нормализованного
// текста от 20% до 70% длины. Для коротких текстов (< 20 знаков рафинада)
// делегирует Text.
func TextCore(text string) string {
	rafinad := Normalize(text)
	if rafinad == "" {
		return ""
	}

	runes := []rune(rafinad)
	if len(runes) < coreMinLen {
		return hashHex(rafinad)
	}

	start := len(runes) / 5
	end := start + len(runes)/2
	return hashHex(string(runes[start:end]))
}

// Annotate заполняет все четыре отпечатка поста.
func Annotate(p *post.Post) {
	p.Fingerprints = post.Fingerprints{
		Structural: Structural(p.OwnerID, p.PostID),
		MediaIDs:   Media(p.Attachments),
		TextHash:   Text(p.Text),
		TextCore:   TextCore(p.Text),
	}
}

// hashHex возвращает первые 32 шестнадцатеричных знака SHA-256.
func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:32]
}
