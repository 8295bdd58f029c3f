// Package config loads the AgentCrew YAML configuration.
//
// A minimal file only needs agents:
//
//	agents:
//	  - id: tutor
//	    provider: openai
//	    model: gpt-4o-mini
//	    instruction: You are a patient tutor.
//	  - id: exam_generator
//	    provider: mock
//	    responses:
//	      default: "1. What is photosynthesis?"
//
// Every other section has defaults (see Default). Unknown keys are rejected
// so typos surface at load time.
package config
