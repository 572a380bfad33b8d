package registry

import (
	"testing"

	"github.com/dao-vault/internal/chain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Per-user lists partition the all-DAO list and never exceed the cap,
// whatever mix of creations and emergency removals runs.
func TestDAORegistryPartitionProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("user lists partition all DAOs", prop.ForAll(
		func(ops []int) bool {
			h := newHarness(t)
			for _, op := range ops {
				user := userAddr(op % 3)
				if op%5 == 0 {
					list := h.daos.GetUserDAOs(user)
					if len(list) == 0 {
						continue
					}
					target := list[0]
					if _, err := h.call(admin, h.daos.Address(), func(tx *chain.Tx) error {
						return h.daos.EmergencyRemoveDAO(tx, target)
					}); err != nil {
						return false
					}
					continue
				}
				_, err := h.createDAO(user, "DAO")
				full := h.daos.GetUserDAOCount(user) == MaxDAOsPerUser
				if err != nil && !full {
					return false
				}
			}

			total := 0
			for i := 0; i < 3; i++ {
				n := h.daos.GetUserDAOCount(userAddr(i))
				if n > MaxDAOsPerUser {
					return false
				}
				for _, dao := range h.daos.GetUserDAOs(userAddr(i)) {
					if !h.daos.IsDAOFromFactory(dao) || h.daos.GetDAOCreator(dao) != userAddr(i) {
						return false
					}
				}
				total += n
			}
			return total == h.daos.GetDAOCount()
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
