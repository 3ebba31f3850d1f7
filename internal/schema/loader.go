package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// Declarations are YAML files, one per program:
//
//	program: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
//	label: "SPL Token"
//	instructions:
//	  - name: transfer
//	    args:
//	      - name: amount
//	        type: u64
//	    accounts:
//	      - name: source
//	        writable: true
//
// The discriminator field is optional; when absent it is derived from the
// instruction name (Anchor sighash).

type fileField struct {
	Name   string      `yaml:"name"`
	Type   string      `yaml:"type"`
	Fields []fileField `yaml:"fields"`
}

type fileAccount struct {
	Name     string `yaml:"name"`
	Writable bool   `yaml:"writable"`
	Signer   bool   `yaml:"signer"`
}

type fileInstruction struct {
	Name          string        `yaml:"name"`
	Discriminator []int         `yaml:"discriminator"`
	Args          []fileField   `yaml:"args"`
	Accounts      []fileAccount `yaml:"accounts"`
}

type fileProgram struct {
	Program      string            `yaml:"program"`
	Label        string            `yaml:"label"`
	Instructions []fileInstruction `yaml:"instructions"`
}

// LoadFile parses one program declaration and registers it.
func LoadFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var decl fileProgram
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	programID, err := solana.PublicKeyFromBase58(decl.Program)
	if err != nil {
		return fmt.Errorf("%s: invalid program id %q: %w", path, decl.Program, err)
	}
	if decl.Label != "" {
		r.RegisterLabel(programID, decl.Label)
	}

	for _, ins := range decl.Instructions {
		s, err := buildSchema(ins)
		if err != nil {
			return fmt.Errorf("%s: instruction %q: %w", path, ins.Name, err)
		}
		if err := r.Register(programID, s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// LoadDir registers every .yaml/.yml declaration in dir. A missing dir is
// not an error; running without schemas just means nothing decodes.
func LoadDir(r *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := LoadFile(r, filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadLabels reads an address-to-name map and registers every entry.
func LoadLabels(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	labels := map[string]string{}
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for addr, label := range labels {
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("%s: invalid address %q: %w", path, addr, err)
		}
		r.RegisterLabel(pk, label)
	}
	return nil
}

func buildSchema(ins fileInstruction) (*InstructionSchema, error) {
	s := &InstructionSchema{Name: ins.Name}

	if len(ins.Discriminator) > 0 {
		if len(ins.Discriminator) != DiscriminatorLen {
			return nil, fmt.Errorf("discriminator must be %d bytes, got %d",
				DiscriminatorLen, len(ins.Discriminator))
		}
		for i, b := range ins.Discriminator {
			if b < 0 || b > 255 {
				return nil, fmt.Errorf("discriminator byte %d out of range: %d", i, b)
			}
			s.Discriminator[i] = byte(b)
		}
	}

	fields, err := buildFields(ins.Args)
	if err != nil {
		return nil, err
	}
	s.Fields = fields

	for _, a := range ins.Accounts {
		s.Accounts = append(s.Accounts, AccountRole{
			Name:     a.Name,
			Writable: a.Writable,
			Signer:   a.Signer,
		})
	}
	return s, nil
}

func buildFields(in []fileField) ([]Field, error) {
	out := make([]Field, 0, len(in))
	for _, f := range in {
		ft, err := buildFieldType(f)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out = append(out, Field{Name: f.Name, Type: ft})
	}
	return out, nil
}

func buildFieldType(f fileField) (FieldType, error) {
	if f.Type == string(KindStruct) {
		nested, err := buildFields(f.Fields)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Kind: KindStruct, Fields: nested}, nil
	}
	if len(f.Fields) > 0 {
		return FieldType{}, fmt.Errorf("fields given for non-struct type %q", f.Type)
	}
	return ParseFieldType(f.Type)
}
