package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/store"
)

func (d *DB) CreateCommunity(ctx context.Context, create *store.Community) (*store.Community, error) {
	fields := []string{"uid", "creator_id", "name", "description"}
	stmt := `
		INSERT INTO community (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(fields)) + `)
		RETURNING id, created_ts, updated_ts, row_status
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.Name,
		create.Description,
	).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs, &create.RowStatus); err != nil {
		return nil, errors.Wrap(err, "failed to create community")
	}
	return create, nil
}

func (d *DB) ListCommunities(ctx context.Context, find *store.FindCommunity) ([]*store.Community, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, *find.RowStatus)
	}
	if find.MemberID != nil {
		where = append(where, "id IN (SELECT community_id FROM community_member WHERE user_id = "+placeholder(len(args)+1)+")")
		args = append(args, *find.MemberID)
	}
	if find.NameSearch != nil {
		where, args = append(where, "name ILIKE "+placeholder(len(args)+1)), append(args, "%"+*find.NameSearch+"%")
	}

	query := `
		SELECT id, uid, creator_id, created_ts, updated_ts, row_status, name, description
		FROM community
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET %d", *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list communities")
	}
	defer rows.Close()

	list := []*store.Community{}
	for rows.Next() {
		var community store.Community
		if err := rows.Scan(
			&community.ID,
			&community.UID,
			&community.CreatorID,
			&community.CreatedTs,
			&community.UpdatedTs,
			&community.RowStatus,
			&community.Name,
			&community.Description,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan community")
		}
		list = append(list, &community)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateCommunity(ctx context.Context, update *store.UpdateCommunity) (*store.Community, error) {
	set, args := []string{}, []any{}

	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *update.RowStatus)
	}
	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Description != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *update.Description)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `
		UPDATE community
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, creator_id, created_ts, updated_ts, row_status, name, description
	`
	var community store.Community
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&community.ID,
		&community.UID,
		&community.CreatorID,
		&community.CreatedTs,
		&community.UpdatedTs,
		&community.RowStatus,
		&community.Name,
		&community.Description,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update community")
	}
	return &community, nil
}

func (d *DB) DeleteCommunity(ctx context.Context, delete *store.DeleteCommunity) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM community_member WHERE community_id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete community members")
	}
	// Notes shared into the community fall back to private so they stay
	// readable by their creators.
	stmt := `UPDATE note SET community_id = NULL, visibility = 'PRIVATE' WHERE community_id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return errors.Wrap(err, "failed to detach community notes")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM community WHERE id = `+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete community")
	}
	return nil
}

func (d *DB) UpsertCommunityMember(ctx context.Context, upsert *store.CommunityMember) (*store.CommunityMember, error) {
	stmt := `
		INSERT INTO community_member (community_id, user_id, role)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (community_id, user_id)
		DO UPDATE SET role = EXCLUDED.role
		RETURNING created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.CommunityID,
		upsert.UserID,
		upsert.Role,
	).Scan(&upsert.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert community member")
	}
	return upsert, nil
}

func (d *DB) ListCommunityMembers(ctx context.Context, find *store.FindCommunityMember) ([]*store.CommunityMember, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.CommunityID != nil {
		where, args = append(where, "community_id = "+placeholder(len(args)+1)), append(args, *find.CommunityID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Role != nil {
		where, args = append(where, "role = "+placeholder(len(args)+1)), append(args, *find.Role)
	}

	query := `
		SELECT community_id, user_id, role, created_ts
		FROM community_member
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list community members")
	}
	defer rows.Close()

	list := []*store.CommunityMember{}
	for rows.Next() {
		var member store.CommunityMember
		if err := rows.Scan(
			&member.CommunityID,
			&member.UserID,
			&member.Role,
			&member.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan community member")
		}
		list = append(list, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteCommunityMember(ctx context.Context, delete *store.DeleteCommunityMember) error {
	stmt := `DELETE FROM community_member WHERE community_id = ` + placeholder(1) + ` AND user_id = ` + placeholder(2)
	result, err := d.db.ExecContext(ctx, stmt, delete.CommunityID, delete.UserID)
	if err != nil {
		return errors.Wrap(err, "failed to delete community member")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("member %d of community %d not found", delete.UserID, delete.CommunityID)
	}
	return nil
}
