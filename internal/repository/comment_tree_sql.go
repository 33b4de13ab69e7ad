package repository

import "gorm.io/gorm"

// threadIDs returns the ids of the seed comments and every reply below them.
// UNION, not UNION ALL, so a corrupted parent cycle still terminates.
func threadIDs(tx *gorm.DB, seedSQL string, args ...interface{}) ([]uint, error) {
	query := `WITH RECURSIVE thread(id) AS (
	` + seedSQL + `
	UNION
	SELECT c.id FROM comments c JOIN thread t ON c.parent_id = t.id
)
SELECT id FROM thread`

	var ids []uint
	if err := tx.Raw(query, args...).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
