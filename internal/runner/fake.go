package runner

// Fake records commands instead of executing them. It backs the tests of
// every package that shells out through a Runner.
type Fake struct {
	Commands []*Command
	Results  []Result // consumed in order; zero Result when exhausted
	Err      error
}

func (f *Fake) Run(cmd *Command) (Result, error) {
	f.Commands = append(f.Commands, cmd)
	if f.Err != nil {
		return Result{}, f.Err
	}
	if len(f.Results) == 0 {
		return Result{}, nil
	}
	res := f.Results[0]
	f.Results = f.Results[1:]
	return res, nil
}

// Last returns the most recently run command, or nil.
func (f *Fake) Last() *Command {
	if len(f.Commands) == 0 {
		return nil
	}
	return f.Commands[len(f.Commands)-1]
}
