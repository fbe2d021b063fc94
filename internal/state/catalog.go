package state

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaptest/pkg/core"
)

// Catalog is the read side of a definition registry.
type Catalog interface {
	All() []*core.TestClassDefinition
	NonTestNames() []string
}

// SaveRegistry stores every definition and non-test class of a run in a
// single transaction.
func (s *SQLiteStore) SaveRegistry(runID string, c Catalog) error {
	if s.db == nil {
		return errNotOpen
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, def := range c.All() {
		if err := saveDefinition(tx, runID, def); err != nil {
			return fmt.Errorf("failed to save %s: %w", def.QualifiedName, err)
		}
	}
	for _, name := range c.NonTestNames() {
		if _, err := tx.Exec(`INSERT INTO non_test_classes (run_id, name) VALUES (?, ?)`, runID, name); err != nil {
			return fmt.Errorf("failed to save non-test class %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	s.logger.Debug("saved catalog", "run_id", runID, "definitions", len(c.All()))
	return nil
}

func saveDefinition(tx *sql.Tx, runID string, def *core.TestClassDefinition) error {
	_, err := tx.Exec(
		`INSERT INTO class_definitions
		 (run_id, name, skipped, skip_code, constructor, creator_threads, instance_count, instance_threads, user_properties, origin)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, def.QualifiedName, boolInt(def.Skipped), def.SkipCode.String(), string(def.Constructor),
		def.CreatorThreadCount, def.InstanceCount, def.InstanceThreadCount, boolInt(def.UserSuppliedProperties), def.Origin,
	)
	if err != nil {
		return err
	}

	indices := make([]int, 0, len(def.InstanceProperties))
	for i := range def.InstanceProperties {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		for key, value := range def.InstanceProperties[i] {
			if _, err := tx.Exec(
				`INSERT INTO instance_properties (run_id, class_name, instance_index, key, value) VALUES (?, ?, ?, ?, ?)`,
				runID, def.QualifiedName, i, key, value,
			); err != nil {
				return err
			}
		}
	}

	for _, name := range def.DataReferenceNames() {
		if _, err := tx.Exec(
			`INSERT INTO data_references (run_id, class_name, name, path) VALUES (?, ?, ?, ?)`,
			runID, def.QualifiedName, name, def.DataReferences[name],
		); err != nil {
			return err
		}
	}

	for _, m := range def.Methods {
		if _, err := tx.Exec(
			`INSERT INTO method_definitions (run_id, class_name, name, ordinal, skipped, skip_code, markers)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, def.QualifiedName, m.Name, m.Ordinal, boolInt(m.Skipped), m.SkipCode.String(), strings.Join(m.Markers, ","),
		); err != nil {
			return err
		}
	}

	for i, d := range def.Dependencies {
		if _, err := tx.Exec(
			`INSERT INTO dependencies (run_id, from_class, from_method, to_class, to_method, ordinal)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, d.FromClass, d.FromMethod, d.ToClass, d.ToMethod, i,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListDefinitions rebuilds the definitions stored for a run, sorted by name.
func (s *SQLiteStore) ListDefinitions(runID string) ([]*core.TestClassDefinition, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.Query(
		`SELECT name, skipped, skip_code, constructor, creator_threads, instance_count, instance_threads, user_properties, origin
		 FROM class_definitions WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*core.TestClassDefinition
	byName := make(map[string]*core.TestClassDefinition)
	for rows.Next() {
		var name, skipCode, constructor string
		var skipped, userProps int
		def := core.NewTestClassDefinition("")
		if err := rows.Scan(&name, &skipped, &skipCode, &constructor,
			&def.CreatorThreadCount, &def.InstanceCount, &def.InstanceThreadCount, &userProps, &def.Origin); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		def.QualifiedName = name
		def.Skipped = skipped != 0
		def.SkipCode, _ = core.ParseSkipCode(skipCode)
		def.Constructor = core.ConstructorStrategy(constructor)
		def.UserSuppliedProperties = userProps != 0
		for i := 1; i <= def.InstanceCount; i++ {
			def.SetInstanceProperties(i, nil)
		}
		defs = append(defs, def)
		byName[name] = def
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	if err := s.loadInstanceProperties(runID, byName); err != nil {
		return nil, err
	}
	if err := s.loadDataReferences(runID, byName); err != nil {
		return nil, err
	}
	if err := s.loadMethods(runID, byName); err != nil {
		return nil, err
	}
	if err := s.loadDependencies(runID, byName); err != nil {
		return nil, err
	}
	return defs, nil
}

func (s *SQLiteStore) loadInstanceProperties(runID string, byName map[string]*core.TestClassDefinition) error {
	rows, err := s.db.Query(
		`SELECT class_name, instance_index, key, value FROM instance_properties WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to load instance properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var class, key, value string
		var index int
		if err := rows.Scan(&class, &index, &key, &value); err != nil {
			return fmt.Errorf("failed to scan instance property: %w", err)
		}
		if def, ok := byName[class]; ok {
			if def.InstanceProperties[index] == nil {
				def.SetInstanceProperties(index, nil)
			}
			def.InstanceProperties[index][key] = value
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadDataReferences(runID string, byName map[string]*core.TestClassDefinition) error {
	rows, err := s.db.Query(`SELECT class_name, name, path FROM data_references WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to load data references: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var class, name, path string
		if err := rows.Scan(&class, &name, &path); err != nil {
			return fmt.Errorf("failed to scan data reference: %w", err)
		}
		if def, ok := byName[class]; ok {
			def.AddDataReference(name, path)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadMethods(runID string, byName map[string]*core.TestClassDefinition) error {
	rows, err := s.db.Query(
		`SELECT class_name, name, ordinal, skipped, skip_code, markers
		 FROM method_definitions WHERE run_id = ? ORDER BY class_name, ordinal`, runID)
	if err != nil {
		return fmt.Errorf("failed to load methods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var class, skipCode, markers string
		var skipped int
		m := &core.TestMethodDefinition{}
		if err := rows.Scan(&class, &m.Name, &m.Ordinal, &skipped, &skipCode, &markers); err != nil {
			return fmt.Errorf("failed to scan method: %w", err)
		}
		m.Skipped = skipped != 0
		m.SkipCode, _ = core.ParseSkipCode(skipCode)
		if markers != "" {
			m.Markers = strings.Split(markers, ",")
		}
		if def, ok := byName[class]; ok {
			def.Methods = append(def.Methods, m)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadDependencies(runID string, byName map[string]*core.TestClassDefinition) error {
	rows, err := s.db.Query(
		`SELECT from_class, from_method, to_class, to_method
		 FROM dependencies WHERE run_id = ? ORDER BY from_class, ordinal`, runID)
	if err != nil {
		return fmt.Errorf("failed to load dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d core.DependencyRef
		if err := rows.Scan(&d.FromClass, &d.FromMethod, &d.ToClass, &d.ToMethod); err != nil {
			return fmt.Errorf("failed to scan dependency: %w", err)
		}
		if def, ok := byName[d.FromClass]; ok {
			def.Dependencies = append(def.Dependencies, d)
		}
	}
	return rows.Err()
}

// ListNonTest returns the non-test class names recorded for a run.
func (s *SQLiteStore) ListNonTest(runID string) ([]string, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	rows, err := s.db.Query(`SELECT name FROM non_test_classes WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list non-test classes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan non-test class: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
