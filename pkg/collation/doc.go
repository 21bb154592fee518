// Package collation provides the string-ordering policies used to compare
// entity keys.
//
// A Policy is obtained from a database-defined collation name with Decode, which
// understands SQL Server style names such as SQL_Latin1_General_CP1_CI_AS or
// French_100_CS_AI, and maps them onto golang.org/x/text/collate collators. BIN
// and BIN2 collations map to ordinal comparison.
//
// Each root entity owns a Cache that memoizes name to policy lookups for the
// lifetime of the root:
//
//	cache := collation.NewCache(collation.OrdinalIgnoreCase, nil, logger)
//	policy := cache.Policy("Latin1_General_CS_AS")
//	policy.Compare("Orders", "orders") // 1
package collation
