package filerepo

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
)

type credentialRecord struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// Save upserts cred into the shared credentials file.
func (r *Repository) Save(ctx context.Context, cred model.Credential) error {
	return withLock(r.credentialsFile, func() error {
		records, err := readCredentials(r.credentialsFile)
		if err != nil {
			return err
		}
		replaced := false
		for i, rec := range records {
			if rec.Name == cred.Name {
				records[i] = toRecord(cred)
				replaced = true
				break
			}
		}
		if !replaced {
			records = append(records, toRecord(cred))
		}
		return writeCredentials(r.credentialsFile, records)
	})
}

// GetByName looks up a credential, returning ok=false (no error) when
// absent.
func (r *Repository) GetByName(ctx context.Context, name string) (model.Credential, bool, error) {
	records, err := readCredentials(r.credentialsFile)
	if err != nil {
		return model.Credential{}, false, err
	}
	for _, rec := range records {
		if rec.Name == name {
			return fromRecord(rec), true, nil
		}
	}
	return model.Credential{}, false, nil
}

// Delete removes a credential by name.
func (r *Repository) Delete(ctx context.Context, name string) (bool, error) {
	var existed bool
	err := withLock(r.credentialsFile, func() error {
		records, err := readCredentials(r.credentialsFile)
		if err != nil {
			return err
		}
		out := records[:0]
		for _, rec := range records {
			if rec.Name == name {
				existed = true
				continue
			}
			out = append(out, rec)
		}
		return writeCredentials(r.credentialsFile, out)
	})
	return existed, err
}

// List returns every credential name.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	records, err := readCredentials(r.credentialsFile)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	sort.Strings(names)
	return names, nil
}

func toRecord(c model.Credential) credentialRecord {
	return credentialRecord{Name: c.Name, Username: c.Username, PasswordHash: c.PasswordHash}
}

func fromRecord(r credentialRecord) model.Credential {
	return model.Credential{Name: r.Name, Username: r.Username, PasswordHash: r.PasswordHash}
}

func readCredentials(path string) ([]credentialRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errs.RepositoryError{Op: "read credentials", Cause: err}
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []credentialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &errs.SerializationError{Op: "unmarshal credentials", Cause: err}
	}
	return records, nil
}

func writeCredentials(path string, records []credentialRecord) error {
	if records == nil {
		records = []credentialRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &errs.SerializationError{Op: "marshal credentials", Cause: err}
	}
	return atomicWrite(path, data, 0o600)
}
