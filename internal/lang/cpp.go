package lang

func init() {
	Register(&Spec{
		Language:          CPP,
		FileExtensions:    []string{".cpp", ".hpp", ".cc", ".cxx", ".hxx"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes: []string{
			"class_specifier",
			"struct_specifier",
			"union_specifier",
			"enum_specifier",
		},
		ModuleNodeTypes: []string{"translation_unit", "namespace_definition"},
		CallNodeTypes:   []string{"call_expression"},
		ImportNodeTypes: []string{"preproc_include"},
	})
}
