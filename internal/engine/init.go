package engine

import (
	"fmt"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
	"github.com/sourceplane/runcontract/internal/jobspec"
)

// InitParams carries everything the init operation needs. The job
// definition arrives already selected from its specification file; the
// runtime descriptor is captured once by the caller and stored as opaque
// metadata.
type InitParams struct {
	JobID          string
	RunID          string
	PipelineTitle  string
	OutputLocation string

	RunDir       string
	ContractFile string
	SpecFile     string

	Job       *jobspec.JobDef
	Overrides jobspec.Overrides
	Vars      jobspec.Vars

	Config      map[string]any
	Inputs      map[string]any
	RunMetadata map[string]any
	Runtime     map[string]string
}

// Init materializes a new contract document from a job specification and
// persists it. Declared tasks start expected; declared assets start
// expected and unproduced.
func (e *Engine) Init(p InitParams) (*contract.Contract, error) {
	if p.JobID == "" {
		return nil, fmt.Errorf("job id is required")
	}
	job := p.Job
	if job == nil {
		job = &jobspec.JobDef{}
	}

	now := e.now()
	tasks, assets, err := jobspec.Materialize(job, p.JobID, now, p.Vars, p.Overrides)
	if err != nil {
		return nil, err
	}

	title := p.PipelineTitle
	if title == "" {
		title = p.JobID
	}
	config := p.Config
	if config == nil {
		config = map[string]any{}
	}
	inputs := p.Inputs
	if inputs == nil {
		inputs = map[string]any{}
	}

	c := &contract.Contract{
		SchemaVersion: contract.SchemaVersion,
		Run: contract.Run{
			RunID:          p.RunID,
			JobID:          p.JobID,
			PipelineTitle:  title,
			Status:         contract.RunStarted,
			StartedAt:      now,
			Runtime:        p.Runtime,
			OutputLocation: p.OutputLocation,
			Extra:          p.RunMetadata,
		},
		Configuration: config,
		InputData:     inputs,
		Tasks:         tasks,
		Assets:        assets,
		Paths: contract.Paths{
			RunDir:       p.RunDir,
			ContractJSON: p.ContractFile,
			SpecFile:     p.SpecFile,
		},
	}

	if err := contractio.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}
