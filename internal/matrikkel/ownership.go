package matrikkel

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	dErrors "masseutsendelse/pkg/domain-errors"
)

// Registry field names used by the projection.
const (
	FieldOwnerships = "eierforhold"
	FieldOwnerRef   = "eierId"
	FieldUnitName   = "bruksnavn"
	FieldID         = "id"

	// FieldOwnerOwnerships and FieldUnit are added to projected records.
	FieldOwnerOwnerships = "ownerships"
	FieldUnit            = "unit"
)

// Record is a registry object as decoded from JSON.
type Record = map[string]any

// OwnerRecord is one owner with every ownership it holds inside the
// searched area.
type OwnerRecord = map[string]any

// ProjectOwnerCentric regroups unit-centric registry data by owner.
//
// Owners are returned in the order their id is first referenced while
// scanning units. Each ownership becomes an entry holding the ownership's
// fields and a "unit" field with the unit minus its ownership list. Inputs
// are not modified, but nested values are shared with the output.
func ProjectOwnerCentric(units, owners []Record) ([]OwnerRecord, error) {
	if units == nil {
		return nil, dErrors.WithTitle(dErrors.CodeValidation, "MatrikkelEnheter missing", "No MatrikkelEnheter is provided")
	}
	if owners == nil {
		return nil, dErrors.WithTitle(dErrors.CodeValidation, "matrikkelOwners missing", "No matrikkelOwners is provided")
	}

	byID := indexOwners(owners)
	result := make([]OwnerRecord, 0)
	seen := make(map[string]int)

	for _, unit := range units {
		ownerships, err := unitOwnerships(unit)
		if err != nil {
			return nil, err
		}
		if len(ownerships) == 0 {
			continue
		}
		stripped := withoutKey(unit, FieldOwnerships)

		for _, ownership := range ownerships {
			ref := ownership[FieldOwnerRef]
			key, ok := IDKey(ref)
			owner, found := byID[key]
			if !ok || !found {
				return nil, dErrors.WithTitle(dErrors.CodeOwnershipIntegrity,
					"Kunne ikke finne eier til eierskap",
					fmt.Sprintf("Eier med id %v kunne ikke finnes for %v", ref, unit[FieldUnitName]))
			}

			pos, exists := seen[key]
			if !exists {
				pos = len(result)
				seen[key] = pos
				result = append(result, seedOwnerRecord(owner))
			}

			entry := maps.Clone(ownership)
			entry[FieldUnit] = stripped
			record := result[pos]
			record[FieldOwnerOwnerships] = append(record[FieldOwnerOwnerships].([]Record), entry)
		}
	}
	return result, nil
}

// seedOwnerRecord copies the owner and flattens its id. Only the id is
// flattened; other wrapped fields are kept as the registry sent them.
func seedOwnerRecord(owner Record) OwnerRecord {
	record := maps.Clone(owner)
	record[FieldID] = flattenOwnerID(owner[FieldID])
	record[FieldOwnerOwnerships] = []Record{}
	return record
}

// flattenOwnerID unwraps {"value": x} owner ids.
func flattenOwnerID(id any) any {
	if wrapped, ok := id.(map[string]any); ok {
		if v, ok := wrapped["value"]; ok && v != nil {
			return v
		}
	}
	return id
}

// indexOwners maps flattened owner ids to owners. The first owner listed
// for an id wins.
func indexOwners(owners []Record) map[string]Record {
	byID := make(map[string]Record, len(owners))
	for _, owner := range owners {
		if owner == nil {
			continue
		}
		key, ok := IDKey(flattenOwnerID(owner[FieldID]))
		if !ok {
			continue
		}
		if _, dup := byID[key]; !dup {
			byID[key] = owner
		}
	}
	return byID
}

// IDKey normalises a scalar registry id so that JSON numbers, integers and
// numeric strings of the same id compare equal. ok is false for nil and
// composite values.
func IDKey(id any) (key string, ok bool) {
	switch v := id.(type) {
	case nil, map[string]any, []any:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case json.Number:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func unitOwnerships(unit Record) ([]Record, error) {
	raw, ok := unit[FieldOwnerships]
	if !ok || raw == nil {
		return nil, nil
	}
	switch list := raw.(type) {
	case []Record:
		for _, o := range list {
			if o == nil {
				return nil, invalidOwnership(unit)
			}
		}
		return list, nil
	case []any:
		out := make([]Record, 0, len(list))
		for _, item := range list {
			o, ok := item.(map[string]any)
			if !ok {
				return nil, invalidOwnership(unit)
			}
			out = append(out, o)
		}
		return out, nil
	default:
		return nil, invalidOwnership(unit)
	}
}

func invalidOwnership(unit Record) error {
	return dErrors.WithTitle(dErrors.CodeValidation,
		"Ugyldig eierforhold",
		fmt.Sprintf("Eierforhold for %v har ukjent format", unit[FieldUnitName]))
}

func withoutKey(r Record, key string) Record {
	out := maps.Clone(r)
	delete(out, key)
	return out
}
