// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package save

import (
	"fmt"

	"github.com/toent/mkwii-client/services/client/dolphin"
	"github.com/toent/mkwii-client/services/client/gamedata"
)

// Grand Prix record layout inside the in-memory rksys buffer. Each
// license holds a 0x60-byte record per (class, cup); the record is
// only meaningful once the game sets the completion gate bit.
const (
	gpRecordBase   uint32 = 0x01C0
	gpRecordStride uint32 = 0x60

	gpGateOffset   uint32 = 0x52
	gpGateBit      byte   = 0x80
	gpTrophyOffset uint32 = 0x4F
	gpRankOffset   uint32 = 0x51
)

// licenseBases locates each license relative to the save buffer. The
// spacing is irregular because licenses embed variable ghost data.
var licenseBases = [4]uint32{0x0008, 0x8CC8, 0x11988, 0x1A648}

// classOffsets orders GP records by engine class within a license.
var classOffsets = map[gamedata.Class]uint32{
	gamedata.Class50:     0x000,
	gamedata.Class100:    0x300,
	gamedata.Class150:    0x600,
	gamedata.ClassMirror: 0x900,
}

// Decoder reads Grand Prix results out of the attached game's save
// buffer. Like Store, a decoder is bound to one resolved layout.
type Decoder struct {
	acc    dolphin.Accessor
	layout dolphin.Layout
}

// NewDecoder returns a decoder bound to one resolved layout.
func NewDecoder(acc dolphin.Accessor, layout dolphin.Layout) *Decoder {
	return &Decoder{acc: acc, layout: layout}
}

func (d *Decoder) recordAddr(class gamedata.Class, cup int) uint32 {
	return d.layout.SaveBuffer +
		licenseBases[d.layout.Slot] +
		gpRecordBase +
		classOffsets[class] +
		uint32(cup)*gpRecordStride
}

// emptyResult is the safe interpretation of an ungated or anomalous
// record: no trophy, rank D.
var emptyResult = gamedata.GPResult{Trophy: gamedata.TrophyNone, Rank: gamedata.RankD}

// Decode returns the stored result for one cup at one engine class.
// An ungated record yields emptyResult without touching trophy/rank,
// whose contents are unspecified pre-completion; gated bytes that map
// to no known trophy or rank also fall back to the safe values.
// Partially written records show up routinely between the game's own
// write passes, so none of that is an error. The error return is
// reserved for memory I/O failure, which invalidates the whole layout.
func (d *Decoder) Decode(class gamedata.Class, cup int) (gamedata.GPResult, error) {
	addr := d.recordAddr(class, cup)

	var rec [4]byte
	if err := d.acc.Read(addr+gpTrophyOffset, rec[:]); err != nil {
		return emptyResult, fmt.Errorf("reading gp record %s cup %d: %w", class, cup, err)
	}
	gate := rec[gpGateOffset-gpTrophyOffset]
	if gate&gpGateBit == 0 {
		return emptyResult, nil
	}

	return gamedata.GPResult{
		Trophy: decodeTrophy(rec[0] >> 6),
		Rank:   decodeRank(rec[gpRankOffset-gpTrophyOffset] & 0x0F),
	}, nil
}

// DecodeAll reads every (class, cup) record for the bound slot. The
// result is indexed [class][cup] in gamedata ordering.
func (d *Decoder) DecodeAll() (map[gamedata.Class][]gamedata.GPResult, error) {
	out := make(map[gamedata.Class][]gamedata.GPResult, len(gamedata.Classes))
	for _, class := range gamedata.Classes {
		results := make([]gamedata.GPResult, len(gamedata.Cups))
		for cup := range gamedata.Cups {
			res, err := d.Decode(class, cup)
			if err != nil {
				return nil, err
			}
			results[cup] = res
		}
		out[class] = results
	}
	return out, nil
}

// decodeTrophy maps the record's 2-bit trophy field. The game counts
// downward from gold; out-of-range values are treated as no trophy.
func decodeTrophy(v byte) gamedata.Trophy {
	switch v {
	case 0:
		return gamedata.TrophyGold
	case 1:
		return gamedata.TrophySilver
	case 2:
		return gamedata.TrophyBronze
	default:
		return gamedata.TrophyNone
	}
}

// decodeRank maps the record's 4-bit rank field. Values past F have
// never been observed on real saves; they default to D to stay inert.
func decodeRank(v byte) gamedata.Rank {
	switch v {
	case 0:
		return gamedata.Rank3Star
	case 1:
		return gamedata.Rank2Star
	case 2:
		return gamedata.Rank1Star
	case 3:
		return gamedata.RankA
	case 4:
		return gamedata.RankB
	case 5:
		return gamedata.RankC
	case 6:
		return gamedata.RankD
	case 7:
		return gamedata.RankE
	case 8:
		return gamedata.RankF
	default:
		return gamedata.RankD
	}
}
