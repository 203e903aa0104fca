package migrations

import (
	"context"
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// looseTypes are the BSON types an id may have in older data; canonical ids
// are always "long".
var looseTypes = bson.A{"string", "double", "int", "decimal"}

func loose(field string) bson.M {
	return bson.M{field: bson.M{"$type": looseTypes}}
}

// looseID normalizes one stored id value. ok=false for missing or unusable
// values.
func looseID(v bson.RawValue) (ident.ID, bool) {
	if v.Type == 0 {
		return ident.Zero, false
	}
	var id ident.ID
	if err := id.UnmarshalBSONValue(v.Type, v.Value); err != nil || id.IsZero() {
		return ident.Zero, false
	}
	return id, true
}

// looseList normalizes a stored id array, reporting how many entries were
// dropped.
func looseList(v bson.RawValue) ([]ident.ID, int) {
	var l ident.List
	if v.Type != bsontype.Array {
		return []ident.ID{}, 0
	}
	if err := l.UnmarshalBSONValue(v.Type, v.Value); err != nil {
		return []ident.ID{}, 0
	}
	if l.IDs == nil {
		l.IDs = []ident.ID{}
	}
	return ident.Dedupe(l.IDs), l.Dropped
}

// arrayValues returns the elements of an array value, or nil for anything
// else.
func arrayValues(v bson.RawValue) []bson.RawValue {
	arr, ok := v.ArrayOK()
	if !ok {
		return nil
	}
	vals, err := arr.Values()
	if err != nil {
		return nil
	}
	return vals
}

// eachRaw streams the documents matching filter.
func eachRaw(ctx context.Context, c *mongo.Collection, filter bson.M, fn func(bson.Raw) error) error {
	cur, err := c.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		if err := fn(cur.Current); err != nil {
			return err
		}
	}
	return cur.Err()
}

// foldLegacyRoles rewrites every profile that still carries the single
// legacy_role field or the map encoding of roles into the plain role array.
func foldLegacyRoles(ctx context.Context, db *mongo.Database, log *zap.Logger) (int64, error) {
	c := db.Collection("profiles")
	filter := bson.M{"$or": bson.A{
		bson.M{"legacy_role": bson.M{"$exists": true}},
		bson.M{"roles": bson.M{"$type": "object"}},
	}}

	var n int64
	err := eachRaw(ctx, c, filter, func(raw bson.Raw) error {
		var p models.Profile
		if err := bson.Unmarshal(raw, &p); err != nil {
			log.Warn("skipping undecodable profile", zap.Stringer("_id", raw.Lookup("_id")), zap.Error(err))
			return nil
		}
		set := p.EffectiveRoles()
		if len(set.Unknown) > 0 {
			log.Warn("dropping unknown role tags",
				zap.Int64("user_id", int64(p.UserID)),
				zap.Strings("tags", set.Unknown))
		}
		_, err := c.UpdateOne(ctx,
			bson.M{"_id": raw.Lookup("_id")},
			bson.M{
				"$set":   bson.M{"roles": set.Strings(), "updated_at": time.Now().UTC()},
				"$unset": bson.M{"legacy_role": ""},
			})
		if err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// canonicalRecordIDs converts string and floating point ids on properties,
// tickets and businesses into integers. Owner list entries that cannot be
// read as an id are dropped.
func canonicalRecordIDs(ctx context.Context, db *mongo.Database, log *zap.Logger) (int64, error) {
	var total int64

	props := db.Collection("properties")
	err := eachRaw(ctx, props, bson.M{"$or": bson.A{loose("owner_ids"), loose("created_by")}}, func(raw bson.Raw) error {
		owners, dropped := looseList(raw.Lookup("owner_ids"))
		if dropped > 0 {
			log.Warn("dropping malformed owner ids",
				zap.Stringer("property_id", raw.Lookup("_id")),
				zap.Int("dropped", dropped))
		}
		set := bson.M{"owner_ids": ident.List{IDs: owners}}
		if id, ok := looseID(raw.Lookup("created_by")); ok {
			set["created_by"] = int64(id)
		}
		if _, err := props.UpdateOne(ctx, bson.M{"_id": raw.Lookup("_id")}, bson.M{"$set": set}); err != nil {
			return err
		}
		total++
		return nil
	})
	if err != nil {
		return total, err
	}

	tickets := db.Collection("tickets")
	err = eachRaw(ctx, tickets, bson.M{"$or": bson.A{loose("author_id"), loose("property_id")}}, func(raw bson.Raw) error {
		upd := bson.M{}
		if id, ok := looseID(raw.Lookup("author_id")); ok {
			upd["$set"] = bson.M{"author_id": int64(id)}
		}
		if pv := raw.Lookup("property_id"); pv.Type != 0 {
			if id, ok := looseID(pv); ok {
				set, _ := upd["$set"].(bson.M)
				if set == nil {
					set = bson.M{}
				}
				set["property_id"] = int64(id)
				upd["$set"] = set
			} else {
				upd["$unset"] = bson.M{"property_id": ""}
			}
		}
		if len(upd) == 0 {
			return nil
		}
		if _, err := tickets.UpdateOne(ctx, bson.M{"_id": raw.Lookup("_id")}, upd); err != nil {
			return err
		}
		total++
		return nil
	})
	if err != nil {
		return total, err
	}

	businesses := db.Collection("businesses")
	err = eachRaw(ctx, businesses, loose("author_id"), func(raw bson.Raw) error {
		id, ok := looseID(raw.Lookup("author_id"))
		if !ok {
			log.Warn("business has unusable author id", zap.Stringer("business_id", raw.Lookup("_id")))
			return nil
		}
		if _, err := businesses.UpdateOne(ctx, bson.M{"_id": raw.Lookup("_id")},
			bson.M{"$set": bson.M{"author_id": int64(id)}}); err != nil {
			return err
		}
		total++
		return nil
	})
	return total, err
}

// canonicalGroupIDs converts coordinator and member ids on groups into
// integers. Member and request entries whose id cannot be read are dropped;
// an unreadable coordinator is removed. Each rewrite bumps the version.
func canonicalGroupIDs(ctx context.Context, db *mongo.Database, log *zap.Logger) (int64, error) {
	c := db.Collection("groups")
	filter := bson.M{"$or": bson.A{
		loose("coordinator_id"),
		loose("members.user_id"),
		loose("requests.user_id"),
	}}

	var n int64
	err := eachRaw(ctx, c, filter, func(raw bson.Raw) error {
		gid := raw.Lookup("_id")
		set := bson.M{"updated_at": time.Now().UTC()}
		upd := bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}}

		if cv := raw.Lookup("coordinator_id"); cv.Type != 0 && cv.Type != bsontype.Null {
			if id, ok := looseID(cv); ok {
				set["coordinator_id"] = int64(id)
			} else {
				log.Warn("removing unusable coordinator id", zap.Stringer("group_id", gid))
				upd["$unset"] = bson.M{"coordinator_id": ""}
			}
		}

		members := []models.GroupMember{}
		for _, v := range arrayValues(raw.Lookup("members")) {
			var m models.GroupMember
			if err := bson.Unmarshal(v.Value, &m); err != nil || m.UserID.IsZero() {
				log.Warn("dropping member with unusable user id", zap.Stringer("group_id", gid))
				continue
			}
			members = append(members, m)
		}
		set["members"] = members

		requests := []models.MembershipRequest{}
		for _, v := range arrayValues(raw.Lookup("requests")) {
			doc, ok := v.DocumentOK()
			if !ok {
				continue
			}
			uid, ok := looseID(doc.Lookup("user_id"))
			if !ok {
				log.Warn("dropping request with unusable user id", zap.Stringer("group_id", gid))
				continue
			}
			r := models.MembershipRequest{UserID: uid, Status: models.RequestPending}
			if st, ok := doc.Lookup("status").StringValueOK(); ok {
				r.Status = st
			}
			if at, ok := doc.Lookup("requested_at").TimeOK(); ok {
				r.RequestedAt = at.UTC()
			}
			requests = append(requests, r)
		}
		set["requests"] = requests

		if _, err := c.UpdateOne(ctx, bson.M{"_id": gid}, upd); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// foldAnnouncementReaders moves the per-announcement readers arrays into each
// reader's profile read list and removes them from the announcements.
func foldAnnouncementReaders(ctx context.Context, db *mongo.Database, log *zap.Logger) (int64, error) {
	anns := db.Collection("announcements")
	profiles := db.Collection("profiles")

	var n int64
	err := eachRaw(ctx, anns, bson.M{"readers": bson.M{"$exists": true}}, func(raw bson.Raw) error {
		annID, ok := looseID(raw.Lookup("_id"))
		if !ok {
			log.Warn("announcement has unusable id", zap.Stringer("_id", raw.Lookup("_id")))
			return nil
		}
		readers, dropped := looseList(raw.Lookup("readers"))
		if dropped > 0 {
			log.Warn("dropping malformed reader ids",
				zap.Int64("announcement_id", int64(annID)),
				zap.Int("dropped", dropped))
		}

		now := time.Now().UTC()
		for _, uid := range readers {
			_, err := profiles.UpdateOne(ctx,
				bson.M{"_id": int64(uid)},
				bson.M{
					"$addToSet": bson.M{"read_announcements": int64(annID)},
					"$set":      bson.M{"updated_at": now},
					"$setOnInsert": bson.M{
						"roles":        bson.A{},
						"capabilities": bson.A{},
						"created_at":   now,
					},
				},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return err
			}
			n++
		}
		_, err := anns.UpdateOne(ctx, bson.M{"_id": raw.Lookup("_id")}, bson.M{"$unset": bson.M{"readers": ""}})
		return err
	})
	return n, err
}

// canonicalTicketStatus rewrites ticket statuses stored in an older spelling
// ("In-Progress", "in progress") to the lifecycle name. Statuses that do not
// parse are logged and left alone.
func canonicalTicketStatus(ctx context.Context, db *mongo.Database, log *zap.Logger) (int64, error) {
	c := db.Collection("tickets")
	canonical := bson.A{
		string(ticketflow.Open), string(ticketflow.InProgress),
		string(ticketflow.Resolved), string(ticketflow.Closed),
	}

	var n int64
	err := eachRaw(ctx, c, bson.M{"status": bson.M{"$nin": canonical}}, func(raw bson.Raw) error {
		stored, _ := raw.Lookup("status").StringValueOK()
		st, ok := ticketflow.Parse(stored)
		if !ok {
			log.Warn("ticket has unknown status",
				zap.Stringer("ticket_id", raw.Lookup("_id")),
				zap.String("status", stored))
			return nil
		}
		if _, err := c.UpdateOne(ctx, bson.M{"_id": raw.Lookup("_id")}, bson.M{"$set": bson.M{"status": string(st)}}); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}
