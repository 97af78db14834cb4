package engine

import (
	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/types"
)

// deriveVersionDiffs sets on every version the changes the next newer version
// made to it. versions are ordered by id then newest first and ids holds the id of
// each version. The newest version of each bean gets an empty diff.
func deriveVersionDiffs(desc *bean.Descriptor, versions []types.Version, ids []interface{}) error {
	for i := range versions {
		if i == 0 || idKey(ids[i]) != idKey(ids[i-1]) {
			versions[i].Diff = map[string]types.ValuePair{}
			continue
		}
		diff, err := desc.Diff(versions[i-1].Bean, versions[i].Bean)
		if err != nil {
			return err
		}
		versions[i].Diff = diff
	}
	return nil
}
