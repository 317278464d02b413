package helper

import (
	"fmt"
	"society_tickets/model"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// GenerateUniqueEventSlug derives a slug from the event name, suffixing a
// counter until no other event uses it. excludeID skips the event being
// renamed.
func GenerateUniqueEventSlug(tx *gorm.DB, name string, excludeID uint) string {
	base := slug.Make(name)
	if base == "" {
		base = "event"
	}
	result := base
	i := 1

	for {
		var count int64
		query := tx.Unscoped().Model(&model.Event{}).Where("slug = ?", result)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		query.Count(&count)

		if count == 0 {
			break
		}
		result = fmt.Sprintf("%s-%d", base, i)
		i++
	}

	return result
}
