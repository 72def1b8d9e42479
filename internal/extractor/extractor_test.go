package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path     string
		expected Language
	}{
		{"index.js", LanguageJavaScript},
		{"App.jsx", LanguageJavaScript},
		{"util.mjs", LanguageJavaScript},
		{"server.ts", LanguageTypeScript},
		{"App.tsx", LanguageTypeScript},
		{"main.py", LanguagePython},
		{"src/deep/nested/mod.py", LanguagePython},
		{"README.md", LanguageUnknown},
		{"Makefile", LanguageUnknown},
		{"style.css", LanguageUnknown},
		{"main.PY", LanguagePython}, // case insensitive
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectLanguage(tt.path))
		})
	}
}

func TestExtract_UnsupportedLanguage(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), "/repo/README.md", "README.md", "# hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestExtract_FileTooLarge(t *testing.T) {
	e := New(WithMaxFileSize(10))
	_, err := e.Extract(context.Background(), "/repo/big.js", "big.js", strings.Repeat("x", 11))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestExtract_JS_Imports(t *testing.T) {
	e := New()
	content := `import React from 'react';
import { useState, useEffect } from 'react';
import { api } from './services/api';
const fs = require('fs');
const mod = await import('./lazy');
`
	facts, err := e.Extract(context.Background(), "/repo/app.js", "app.js", content)
	require.NoError(t, err)
	require.Len(t, facts.Imports, 5)

	assert.Equal(t, "react", facts.Imports[0].Specifier)
	assert.Equal(t, ImportStatic, facts.Imports[0].Kind)
	assert.False(t, facts.Imports[0].IsRelative)
	assert.Equal(t, []string{"React"}, facts.Imports[0].Names)

	assert.ElementsMatch(t, []string{"useState", "useEffect"}, facts.Imports[1].Names)

	assert.Equal(t, "./services/api", facts.Imports[2].Specifier)
	assert.True(t, facts.Imports[2].IsRelative)

	assert.Equal(t, "fs", facts.Imports[3].Specifier)
	assert.Equal(t, ImportRequire, facts.Imports[3].Kind)

	assert.Equal(t, "./lazy", facts.Imports[4].Specifier)
	assert.Equal(t, ImportDynamic, facts.Imports[4].Kind)
}

func TestExtract_JS_Functions(t *testing.T) {
	e := New()
	content := `export function fetchUser(id) {
  return api.get(id);
}

const formatName = (user) => user.name;

async function main() {
  await fetchUser(1);
}

function useCounter(start) {
  return start;
}
`
	facts, err := e.Extract(context.Background(), "/repo/users.js", "users.js", content)
	require.NoError(t, err)
	require.Len(t, facts.Functions, 4)

	byName := make(map[string]FunctionDefinition)
	for _, fn := range facts.Functions {
		byName[fn.Name] = fn
	}

	fetch := byName["fetchUser"]
	assert.Equal(t, FunctionPlain, fetch.Kind)
	assert.True(t, fetch.Exported)
	assert.Equal(t, 1, fetch.ParamCount)
	assert.Equal(t, 1, fetch.StartLine)

	format := byName["formatName"]
	assert.Equal(t, FunctionArrow, format.Kind)
	assert.False(t, format.Exported)

	mainFn := byName["main"]
	assert.True(t, mainFn.Async)
	assert.True(t, mainFn.EntryPoint)

	hook := byName["useCounter"]
	assert.Equal(t, FunctionHook, hook.Kind)
}

func TestExtract_JS_ClassesAndMethods(t *testing.T) {
	e := New()
	content := `export class UserService {
  constructor(db) {
    this.db = db;
  }

  findUser(id) {
    return this.db.get(id);
  }
}
`
	facts, err := e.Extract(context.Background(), "/repo/service.js", "service.js", content)
	require.NoError(t, err)

	require.Len(t, facts.Classes, 1)
	assert.Equal(t, "UserService", facts.Classes[0].Name)
	assert.True(t, facts.Classes[0].Exported)

	// constructor is not listed as a function, findUser is
	require.Len(t, facts.Functions, 1)
	fn := facts.Functions[0]
	assert.Equal(t, "findUser", fn.Name)
	assert.Equal(t, "UserService.findUser", fn.QualifiedName)
	assert.Equal(t, FunctionMethod, fn.Kind)
	assert.Equal(t, "UserService", fn.ParentClass)
}

func TestExtract_JS_BuiltinCallsFiltered(t *testing.T) {
	e := New()
	content := `function report(data) {
  console.log(data);
  const n = Math.max(1, 2);
  JSON.stringify(data);
  process(data);
}
`
	facts, err := e.Extract(context.Background(), "/repo/report.js", "report.js", content)
	require.NoError(t, err)

	require.Len(t, facts.Calls, 1)
	assert.Equal(t, "process", facts.Calls[0].Callee)
}

func TestExtract_JS_MethodAndConstructorCalls(t *testing.T) {
	e := New()
	content := `function setup() {
  const svc = new UserService(db);
  svc.findUser(1);
  helper();
}
`
	facts, err := e.Extract(context.Background(), "/repo/setup.js", "setup.js", content)
	require.NoError(t, err)
	require.Len(t, facts.Calls, 3)

	byCallee := make(map[string]CallSite)
	for _, c := range facts.Calls {
		byCallee[c.Callee] = c
	}

	ctor := byCallee["UserService"]
	assert.Equal(t, CallConstructor, ctor.Kind)

	method := byCallee["findUser"]
	assert.Equal(t, CallMethod, method.Kind)
	assert.Equal(t, "svc", method.Qualifier)

	plain := byCallee["helper"]
	assert.Equal(t, CallPlain, plain.Kind)
	assert.Empty(t, plain.Qualifier)
}

func TestExtract_TypeScript(t *testing.T) {
	e := New()
	content := `import { Request, Response } from 'express';

export async function handleRequest(req: Request, res: Response): Promise<void> {
  res.json({ ok: true });
}
`
	facts, err := e.Extract(context.Background(), "/repo/handler.ts", "handler.ts", content)
	require.NoError(t, err)
	assert.Equal(t, LanguageTypeScript, facts.Source.Language)

	require.Len(t, facts.Functions, 1)
	fn := facts.Functions[0]
	assert.Equal(t, "handleRequest", fn.Name)
	assert.True(t, fn.Exported)
	assert.True(t, fn.Async)
	assert.True(t, fn.EntryPoint)
	assert.Equal(t, 2, fn.ParamCount)
}

func TestExtract_TSX(t *testing.T) {
	e := New()
	content := `export function Banner({ title }) {
  return <div>{title}</div>;
}
`
	facts, err := e.Extract(context.Background(), "/repo/Banner.tsx", "Banner.tsx", content)
	require.NoError(t, err)
	require.Len(t, facts.Functions, 1)
	assert.Equal(t, "Banner", facts.Functions[0].Name)
	assert.True(t, facts.Functions[0].Exported)
}

func TestExtract_Python_Imports(t *testing.T) {
	e := New()
	content := `import os
import numpy as np
from .services.api import fetch_user, save_user
from ..shared import utils
from flask import Flask
`
	facts, err := e.Extract(context.Background(), "/repo/app.py", "app.py", content)
	require.NoError(t, err)
	require.Len(t, facts.Imports, 5)

	assert.Equal(t, "os", facts.Imports[0].Specifier)
	assert.Equal(t, ImportStatic, facts.Imports[0].Kind)

	assert.Equal(t, "numpy", facts.Imports[1].Specifier)

	rel := facts.Imports[2]
	assert.Equal(t, ".services.api", rel.Specifier)
	assert.Equal(t, ImportFrom, rel.Kind)
	assert.True(t, rel.IsRelative)
	assert.ElementsMatch(t, []string{"fetch_user", "save_user"}, rel.Names)

	parent := facts.Imports[3]
	assert.Equal(t, "..shared", parent.Specifier)
	assert.True(t, parent.IsRelative)

	assert.Equal(t, "flask", facts.Imports[4].Specifier)
	assert.False(t, facts.Imports[4].IsRelative)
}

func TestExtract_Python_Functions(t *testing.T) {
	e := New()
	content := `def main():
    run()

def _internal_helper(x):
    return x

async def fetch_data(url, timeout):
    pass

class Repo:
    def __init__(self, conn):
        self.conn = conn

    def find(self, key):
        return self.conn.get(key)

    def __repr__(self):
        return "Repo"
`
	facts, err := e.Extract(context.Background(), "/repo/repo.py", "repo.py", content)
	require.NoError(t, err)

	byName := make(map[string]FunctionDefinition)
	for _, fn := range facts.Functions {
		byName[fn.Name] = fn
	}

	// __repr__ is excluded, __init__ stays as the constructor
	require.Len(t, facts.Functions, 5)

	mainFn := byName["main"]
	assert.True(t, mainFn.EntryPoint)
	assert.True(t, mainFn.Exported)
	assert.Equal(t, 0, mainFn.ParamCount)

	helper := byName["_internal_helper"]
	assert.False(t, helper.Exported)

	fetch := byName["fetch_data"]
	assert.True(t, fetch.Async)
	assert.Equal(t, 2, fetch.ParamCount)

	init := byName["__init__"]
	assert.Equal(t, FunctionConstructor, init.Kind)
	assert.Equal(t, "Repo", init.ParentClass)
	assert.Equal(t, "Repo.__init__", init.QualifiedName)
	assert.Equal(t, 1, init.ParamCount) // self excluded

	find := byName["find"]
	assert.Equal(t, FunctionMethod, find.Kind)
	assert.Equal(t, "Repo", find.ParentClass)

	require.Len(t, facts.Classes, 1)
	assert.Equal(t, "Repo", facts.Classes[0].Name)
}

func TestExtract_Python_BuiltinCallsFiltered(t *testing.T) {
	e := New()
	content := `def work(items):
    print(len(items))
    total = sum(items)
    process(items)
`
	facts, err := e.Extract(context.Background(), "/repo/work.py", "work.py", content)
	require.NoError(t, err)

	require.Len(t, facts.Calls, 1)
	assert.Equal(t, "process", facts.Calls[0].Callee)
}

func TestExtract_MalformedStillYieldsFacts(t *testing.T) {
	e := New()
	content := `function broken(a, b {
  return a +
}

function intact() {
  return 1;
}
`
	facts, err := e.Extract(context.Background(), "/repo/broken.js", "broken.js", content)
	require.NoError(t, err)

	names := make([]string, 0, len(facts.Functions))
	for _, fn := range facts.Functions {
		names = append(names, fn.Name)
	}
	assert.Contains(t, names, "intact")
}

func TestExtract_SourceMetadata(t *testing.T) {
	e := New()
	content := "const x = 1;\nconst y = 2;\n"
	facts, err := e.Extract(context.Background(), "/repo/src/util/x.js", "src/util/x.js", content)
	require.NoError(t, err)

	assert.Equal(t, "x.js", facts.Source.Name)
	assert.Equal(t, "src/util", facts.Source.Folder)
	assert.Equal(t, int64(len(content)), facts.Source.Size)
	assert.Equal(t, 2, facts.Source.Lines)
	assert.Empty(t, facts.Source.Content)
}

func TestExtract_KeepContent(t *testing.T) {
	e := New(WithKeepContent(true))
	facts, err := e.Extract(context.Background(), "/repo/x.js", "x.js", "const x = 1;")
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;", facts.Source.Content)
}

func TestCallSiteID(t *testing.T) {
	site := CallSite{File: "a.js", Line: 10, Column: 4, Callee: "run"}
	assert.Equal(t, "a.js:10:4:run", site.ID())
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("a"))
	assert.Equal(t, 1, countLines("a\n"))
	assert.Equal(t, 3, countLines("a\nb\nc"))
}
