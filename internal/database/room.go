package database

import (
	"context"
	"fmt"
	"time"

	"github.com/yprite/Tesla-LockChime-sub001/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) Claim(ctx context.Context, room, node string) (string, bool, error) {
	claim := models.RoomOwner{Room: room, Node: node, ClaimedAt: time.Now()}

	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&claim).Error
	if err != nil {
		return "", false, fmt.Errorf("claim room %q: %w", room, err)
	}

	var current models.RoomOwner
	if err := d.db.WithContext(ctx).First(&current, "room = ?", room).Error; err != nil {
		return "", false, fmt.Errorf("read owner of room %q: %w", room, err)
	}

	return current.Node, current.Node == node, nil
}

func (d *Database) Release(ctx context.Context, room, node string) error {
	err := d.db.WithContext(ctx).
		Delete(&models.RoomOwner{}, "room = ? AND node = ?", room, node).Error
	if err != nil {
		return fmt.Errorf("release room %q: %w", room, err)
	}
	return nil
}

// ReleaseNode drops every claim node holds. It runs at startup so rooms left
// behind by a crashed run of the same node become claimable again.
func (d *Database) ReleaseNode(ctx context.Context, node string) (int64, error) {
	res := d.db.WithContext(ctx).Delete(&models.RoomOwner{}, "node = ?", node)
	if res.Error != nil {
		return 0, fmt.Errorf("release rooms of node %q: %w", node, res.Error)
	}
	return res.RowsAffected, nil
}
