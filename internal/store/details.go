package store

import (
	"context"
	"database/sql"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/errors"
)

// UpsertDetails writes the detail rows for one node type. Identifiers
// are passed through the store's normalizer so detail tables only ever
// hold canonical casing. Existing rows with the same unique key are
// overwritten.
func (s *Store) UpsertDetails(ctx context.Context, nodeType string, d catalogs.Details) error {
	nodeType = s.normalize(nodeType)
	if nodeType == "" {
		return errors.NewValidationError("node_type", nodeType, "must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapIO("upsert details", s.path, err)
	}
	defer tx.Rollback()

	for _, op := range d.Operations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO node_operations (node_type, resource, operation, display_name, description)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(node_type, resource, operation) DO UPDATE SET
				display_name = excluded.display_name,
				description = excluded.description
		`, nodeType, op.Resource, op.Operation, op.DisplayName, op.Description)
		if err != nil {
			return errors.WrapResource("upsert", "operation", nodeType, err)
		}
	}

	for _, p := range d.Parameters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO node_parameters (node_type, resource, operation, parameter_name,
				display_name, parameter_type, required, default_value, description, options)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(node_type, resource, operation, parameter_name) DO UPDATE SET
				display_name = excluded.display_name,
				parameter_type = excluded.parameter_type,
				required = excluded.required,
				default_value = excluded.default_value,
				description = excluded.description,
				options = excluded.options
		`, nodeType, p.Resource, p.Operation, p.Name,
			p.DisplayName, p.Type, p.Required, p.Default, p.Description, p.Options)
		if err != nil {
			return errors.WrapResource("upsert", "parameter", nodeType, err)
		}
	}

	for _, c := range d.Credentials {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO node_credentials (node_type, credential_type, display_name, required)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(node_type, credential_type) DO UPDATE SET
				display_name = excluded.display_name,
				required = excluded.required
		`, nodeType, c.CredentialType, c.DisplayName, c.Required)
		if err != nil {
			return errors.WrapResource("upsert", "credential", nodeType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapIO("upsert details", s.path, err)
	}
	return nil
}

// Details reads the detail rows for one node type. The lookup is
// case-insensitive; a node with no detail rows yields an empty
// Details, not an error.
func (s *Store) Details(ctx context.Context, nodeType string) (catalogs.Details, error) {
	var d catalogs.Details
	nodeType = s.normalize(nodeType)

	rows, err := s.db.QueryContext(ctx, `
		SELECT node_type, resource, operation, display_name, description
		FROM node_operations WHERE LOWER(node_type) = LOWER(?)
		ORDER BY resource, operation
	`, nodeType)
	if err != nil {
		return d, errors.WrapResource("list", "operations", nodeType, err)
	}
	for rows.Next() {
		var op catalogs.Operation
		var resource, display, description sql.NullString
		if err := rows.Scan(&op.NodeType, &resource, &op.Operation, &display, &description); err != nil {
			rows.Close()
			return d, errors.WrapResource("scan", "operations", nodeType, err)
		}
		op.Resource = resource.String
		op.DisplayName = display.String
		op.Description = description.String
		d.Operations = append(d.Operations, op)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return d, errors.WrapResource("list", "operations", nodeType, err)
	}
	if err := rows.Close(); err != nil {
		return d, errors.WrapResource("list", "operations", nodeType, err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT node_type, resource, operation, parameter_name, display_name,
			parameter_type, required, default_value, description, options
		FROM node_parameters WHERE LOWER(node_type) = LOWER(?)
		ORDER BY resource, operation, parameter_name
	`, nodeType)
	if err != nil {
		return d, errors.WrapResource("list", "parameters", nodeType, err)
	}
	for rows.Next() {
		var p catalogs.Parameter
		var resource, operation, display, ptype, def, description, options sql.NullString
		if err := rows.Scan(&p.NodeType, &resource, &operation, &p.Name, &display,
			&ptype, &p.Required, &def, &description, &options); err != nil {
			rows.Close()
			return d, errors.WrapResource("scan", "parameters", nodeType, err)
		}
		p.Resource = resource.String
		p.Operation = operation.String
		p.DisplayName = display.String
		p.Type = ptype.String
		p.Default = def.String
		p.Description = description.String
		p.Options = options.String
		d.Parameters = append(d.Parameters, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return d, errors.WrapResource("list", "parameters", nodeType, err)
	}
	if err := rows.Close(); err != nil {
		return d, errors.WrapResource("list", "parameters", nodeType, err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT node_type, credential_type, display_name, required
		FROM node_credentials WHERE LOWER(node_type) = LOWER(?)
		ORDER BY credential_type
	`, nodeType)
	if err != nil {
		return d, errors.WrapResource("list", "credentials", nodeType, err)
	}
	for rows.Next() {
		var c catalogs.Credential
		var display sql.NullString
		if err := rows.Scan(&c.NodeType, &c.CredentialType, &display, &c.Required); err != nil {
			rows.Close()
			return d, errors.WrapResource("scan", "credentials", nodeType, err)
		}
		c.DisplayName = display.String
		d.Credentials = append(d.Credentials, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return d, errors.WrapResource("list", "credentials", nodeType, err)
	}
	if err := rows.Close(); err != nil {
		return d, errors.WrapResource("list", "credentials", nodeType, err)
	}

	return d, nil
}
