package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/bashkah/partyroom/internal/store"
)

// The patch types carry nil-able fields; these helpers translate them into
// $set/$inc documents so merges happen server-side.

func roomUpdate(p store.RoomPatch) bson.M {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Phase != nil {
		set["phase"] = *p.Phase
	}
	if p.CurrentFactIndex != nil {
		set["currentFactIndex"] = *p.CurrentFactIndex
	}
	if p.Round != nil {
		set["round"] = *p.Round
	}
	if p.Shuffled != nil {
		set["shuffled"] = *p.Shuffled
	}
	if p.JokerID != nil {
		set["jokerId"] = *p.JokerID
	}
	return bson.M{"$set": set}
}

func playerUpdate(p store.PlayerPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.IsReady != nil {
		set["isReady"] = *p.IsReady
	}
	if p.HasSubmitted != nil {
		set["hasSubmitted"] = *p.HasSubmitted
	}
	if p.HasVoted != nil {
		set["hasVoted"] = *p.HasVoted
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if p.ScoreDelta != 0 {
		update["$inc"] = bson.M{"score": p.ScoreDelta}
	}
	if len(update) == 0 {
		// UpdateOne rejects an empty update document
		update["$unset"] = bson.M{"_noop": ""}
	}
	return update
}

func factUpdate(p store.FactPatch) bson.M {
	set := bson.M{}
	if p.OrderIndex != nil {
		set["orderIndex"] = *p.OrderIndex
	}
	if p.Revealed != nil {
		set["revealed"] = *p.Revealed
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if p.VotesDelta != 0 {
		update["$inc"] = bson.M{"votesReceived": p.VotesDelta}
	}
	if len(update) == 0 {
		update["$unset"] = bson.M{"_noop": ""}
	}
	return update
}
