package anyfrag

import (
	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anysym"
	"gopkg.in/go-playground/validator.v9"
)

// Params describes the fragments and featurization of an
// atomic fragment regressor.
//
// Fragment 1 is usually a ligand, fragment 2 a protein
// pocket, and the complex both of them together.
type Params struct {
	// AtomTypes lists the atomic numbers the model knows.
	// Each type gets its own energy network, and atoms of
	// other types contribute nothing.
	AtomTypes []float64 `yaml:"atom_types" mapstructure:"atom_types" validate:"min=1"`

	// Radial is {cutoffs, means, smoothnesses}; see
	// anysym.ExpandRadial.
	Radial [][]float64 `yaml:"radial" mapstructure:"radial"`

	Frag1NumAtoms   int     `yaml:"frag1_num_atoms" mapstructure:"frag1_num_atoms" validate:"min=1"`
	Frag2NumAtoms   int     `yaml:"frag2_num_atoms" mapstructure:"frag2_num_atoms" validate:"min=1"`
	ComplexNumAtoms int     `yaml:"complex_num_atoms" mapstructure:"complex_num_atoms" validate:"min=1"`
	MaxNumNeighbors int     `yaml:"max_num_neighbors" mapstructure:"max_num_neighbors" validate:"min=1"`
	NeighborCutoff  float64 `yaml:"neighbor_cutoff" mapstructure:"neighbor_cutoff" validate:"gt=0"`
}

// DefaultParams returns the parameters used for the
// PDBbind scaffold split.
func DefaultParams() Params {
	return Params{
		AtomTypes: []float64{1, 6, 7, 8, 9, 11, 12, 15, 16, 17, 20, 25, 30, 35, 53},
		Radial:    [][]float64{{12.0}, {0.0, 4.0, 8.0}, {4.0}},

		Frag1NumAtoms:   140,
		Frag2NumAtoms:   821,
		ComplexNumAtoms: 908,
		MaxNumNeighbors: 12,
		NeighborCutoff:  12.0,
	}
}

var validate = validator.New()

// Validate checks the parameters and expands the radial
// specification.
// Errors are *anychem.ConfigError.
func (p *Params) Validate() ([]anysym.RadialParam, error) {
	if err := validate.Struct(p); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, &anychem.ConfigError{
				Field:  fe.Field(),
				Reason: "failed " + fe.Tag() + " constraint",
			}
		}
		return nil, &anychem.ConfigError{Field: "Params", Reason: err.Error()}
	}
	if p.ComplexNumAtoms < p.Frag1NumAtoms || p.ComplexNumAtoms < p.Frag2NumAtoms {
		return nil, &anychem.ConfigError{
			Field:  "ComplexNumAtoms",
			Reason: "smaller than one of its fragments",
		}
	}
	radial, err := anysym.ExpandRadial(p.Radial)
	if err != nil {
		return nil, &anychem.ConfigError{Field: "Radial", Reason: err.Error()}
	}
	return radial, nil
}

// InputDim returns the length of a packed complex.
func (p *Params) InputDim() int {
	return anysym.AtomWidth * (p.Frag1NumAtoms + p.Frag2NumAtoms + p.ComplexNumAtoms)
}

// Pack packs a ligand and pocket into a feature vector.
// The complex is the ligand atoms followed by the pocket
// atoms.
func (p *Params) Pack(ligand, pocket []anysym.Atom) ([]float64, error) {
	frag1, err := anysym.PackAtoms(ligand, p.Frag1NumAtoms)
	if err != nil {
		return nil, err
	}
	frag2, err := anysym.PackAtoms(pocket, p.Frag2NumAtoms)
	if err != nil {
		return nil, err
	}
	complexAtoms := append(append([]anysym.Atom{}, ligand...), pocket...)
	complexPacked, err := anysym.PackAtoms(complexAtoms, p.ComplexNumAtoms)
	if err != nil {
		return nil, err
	}
	return append(append(frag1, frag2...), complexPacked...), nil
}
